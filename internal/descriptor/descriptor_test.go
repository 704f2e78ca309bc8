package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/stagepack/internal/platform"
)

func testDescriptor() Descriptor {
	return Descriptor{
		Product: Product{
			AppName:         "App",
			InstallerPrefix: "App_",
			DefaultChannel:  "App Release",
			DefaultGrid:     "agni",
		},
		Platform:      platform.LinuxX86_64,
		Configuration: "Release",
		BuildType:     "Release",
		Channel:       "App Release",
		Version:       Version{"1", "2", "3"},
	}
}

func TestArtifactNaming(t *testing.T) {
	t.Parallel()

	d := testDescriptor()
	d.Channel = "Beta Test"

	require.Equal(t, "App_1_2_3_BETATEST", d.LinuxInstallerName())
	require.Equal(t, "App_1_2_3_BETATEST", d.ImageName())

	d.Arch = "x86_64"
	require.Equal(t, "App_x86_64_1_2_3_BETATEST", d.LinuxInstallerName())
}

func TestSuffixRules(t *testing.T) {
	t.Parallel()

	d := testDescriptor()
	require.Empty(t, d.Suffix())
	require.Equal(t, "App_1_2_3", d.ImageName())
	require.Equal(t, "App", d.VolumeAppName())

	d.Grid = "aditi"
	require.Equal(t, "_ADITI", d.Suffix())
	require.Equal(t, "App aditi", d.VolumeAppName())

	d.Grid = "AGNI"
	require.Empty(t, d.Suffix())

	d.Channel = "App First Look"
	d.Grid = "aditi"
	require.Equal(t, "_FIRSTLOOK", d.Suffix(), "channel wins over grid")
	require.Equal(t, "App First Look", d.VolumeAppName())
	require.Equal(t, "firstlook", d.ChannelLowerWord())
}

func TestInstallerNameOverride(t *testing.T) {
	t.Parallel()

	d := testDescriptor()
	d.InstallerName = "custom-name"
	require.Equal(t, "custom-name", d.LinuxInstallerName())
}

func TestFlagsList(t *testing.T) {
	t.Parallel()

	d := testDescriptor()
	require.Empty(t, d.FlagsList("http://preview-agni.example.com/helpers/"))

	d.Grid = "aditi"
	require.Equal(t,
		"--grid aditi --helperuri http://preview-aditi.example.com/helpers/",
		d.FlagsList("http://preview-aditi.example.com/helpers/"))
}

func TestActions(t *testing.T) {
	t.Parallel()

	d := testDescriptor()
	d.Actions = []string{"copy", "Package"}
	require.True(t, d.HasAction(ActionPackage))
	require.False(t, d.HasAction(ActionUnpacked))
	require.True(t, d.IsRelease())
}

func TestParseVersion(t *testing.T) {
	t.Parallel()

	v, err := ParseVersion("v1.22.3.45")
	require.NoError(t, err)
	require.Equal(t, Version{"1", "22", "3", "45"}, v)
	require.Equal(t, "1_22_3_45", v.Underscored())
	require.Equal(t, "1.22.3.45", v.String())

	_, err = ParseVersion("1.x.3")
	require.Error(t, err)

	_, err = ParseVersion("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	require.NoError(t, testDescriptor().Validate())

	d := testDescriptor()
	d.Version = nil
	require.Error(t, d.Validate())
}
