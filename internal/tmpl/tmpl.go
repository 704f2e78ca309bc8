/*
Package tmpl renders the small text templates stagepack reads from its
configuration: the helper URI, installer name overrides and hook commands.
*/
package tmpl

import (
	"bytes"
	"os"
	"runtime"
	"strings"
	"text/template"
	"time"

	"github.com/oarkflow/stagepack/internal/descriptor"
)

// Context provides template context and rendering
type Context struct {
	desc descriptor.Descriptor
	data map[string]interface{}
}

// New creates a template context for d. vars are user variables from the
// configuration file; they never override descriptor fields.
func New(d descriptor.Descriptor, vars map[string]string) *Context {
	ctx := &Context{
		desc: d,
		data: make(map[string]interface{}),
	}
	for k, v := range vars {
		ctx.data[k] = v
	}
	ctx.init()
	return ctx
}

func (c *Context) init() {
	d := c.desc
	now := time.Now()

	c.data["AppName"] = d.Product.AppName
	c.data["InstallerPrefix"] = d.Product.InstallerPrefix
	c.data["Platform"] = d.Platform.String()
	c.data["Configuration"] = d.Configuration
	c.data["BuildType"] = d.BuildType
	c.data["Channel"] = d.Channel
	c.data["ChannelOneWord"] = d.ChannelOneWord()
	c.data["ChannelLowerWord"] = d.ChannelLowerWord()
	c.data["LoginChannel"] = d.LoginChannel
	c.data["BrandingID"] = d.BrandingID
	c.data["Grid"] = d.Grid
	c.data["IsDefaultGrid"] = d.IsDefaultGrid()
	c.data["IsDefaultChannel"] = d.IsDefaultChannel()
	c.data["Arch"] = d.Arch
	c.data["Version"] = d.Version.String()
	c.data["VersionUnderscored"] = d.Version.Underscored()
	c.data["Suffix"] = d.Suffix()

	c.data["Date"] = now.Format(time.RFC3339)
	c.data["Timestamp"] = now.Unix()
	c.data["HostOS"] = runtime.GOOS
	c.data["HostArch"] = runtime.GOARCH

	env := make(map[string]string)
	for _, e := range os.Environ() {
		parts := strings.SplitN(e, "=", 2)
		if len(parts) == 2 {
			env[parts[0]] = parts[1]
		}
	}
	c.data["Env"] = env
}

// Apply applies the template to a string
func (c *Context) Apply(tmpl string) (string, error) {
	t, err := template.New("").Funcs(c.funcs()).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, c.data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// Set sets a value in the context
func (c *Context) Set(key string, value interface{}) {
	c.data[key] = value
}

// Get gets a value from the context
func (c *Context) Get(key string) string {
	if val, ok := c.data[key]; ok {
		if s, ok := val.(string); ok {
			return s
		}
	}
	return ""
}

func (c *Context) funcs() template.FuncMap {
	return template.FuncMap{
		"replace":    strings.ReplaceAll,
		"tolower":    strings.ToLower,
		"toupper":    strings.ToUpper,
		"trim":       strings.TrimSpace,
		"trimprefix": strings.TrimPrefix,
		"trimsuffix": strings.TrimSuffix,
		"join":       strings.Join,
		"contains":   strings.Contains,
		"fields":     strings.Fields,

		"env":       os.Getenv,
		"expandenv": os.ExpandEnv,
	}
}
