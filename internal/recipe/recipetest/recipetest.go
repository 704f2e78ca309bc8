// Package recipetest builds fake build trees that satisfy the recipes, for
// tests of the recipe, packaging and pipeline packages.
package recipetest

import (
	"os"
	"path"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oarkflow/stagepack/internal/config"
	"github.com/oarkflow/stagepack/internal/descriptor"
	"github.com/oarkflow/stagepack/internal/platform"
)

// SourceDir is where the source root sits inside a workspace returned by
// Workspace. Recipes reach two levels up for libraries and scripts.
const SourceDir = "indra/newview"

// Config returns a validated configuration matching the trees written by
// Write.
func Config() *config.Config {
	cfg := config.Default()
	cfg.Product = config.Product{
		AppName:           "Cool VL Viewer",
		InstallerPrefix:   "CoolVLViewer_",
		FinalExe:          "CoolVLViewer.exe",
		BuiltExe:          "secondlife-bin.exe",
		BinaryName:        "cool_vl_viewer-bin",
		WrapperName:       "cool_vl_viewer",
		Icon:              "cvlv_icon.png",
		MacIcon:           "cool_vl_viewer.icns",
		InfoPlist:         "Info-CoolVLViewer.plist",
		Readmes:           []string{"../../doc/CoolVLViewerReadme.txt"},
		DefaultChannel:    "Cool VL Viewer Release",
		DefaultGrid:       "agni",
		HelperURITemplate: config.DefaultHelperURITemplate,
	}
	return cfg
}

// Workspace creates an empty workspace and returns its root and the source
// root inside it.
func Workspace(t *testing.T) (root, source string) {
	t.Helper()

	root = t.TempDir()
	source = filepath.Join(root, filepath.FromSlash(SourceDir))
	require.NoError(t, os.MkdirAll(source, 0o755))
	return root, source
}

// Write creates every file the recipe for p selects, below source.
func Write(t *testing.T, source string, p platform.Platform, cfg *config.Config) {
	t.Helper()

	for _, rel := range Files(p, cfg) {
		full := filepath.Join(source, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))

		mode := os.FileMode(0o644)
		if executable(rel) {
			mode = 0o755
		}
		require.NoError(t, os.WriteFile(full, []byte(rel+"\n"), mode))
		require.NoError(t, os.Chmod(full, mode))
	}
}

// Remove deletes files written by Write.
func Remove(t *testing.T, source string, rels ...string) {
	t.Helper()

	for _, rel := range rels {
		require.NoError(t, os.RemoveAll(filepath.Join(source, filepath.FromSlash(rel))))
	}
}

func executable(rel string) bool {
	base := path.Base(rel)
	if strings.HasSuffix(base, ".sh") || strings.HasSuffix(base, ".exe") {
		return true
	}
	switch base {
	case "secondlife-bin", "secondlife-stripped", "SLPlugin", "SLVoice",
		"linux-crash-logger", "linux-crash-logger-stripped":
		return true
	}
	return strings.Contains(rel, ".app/Contents/MacOS/")
}

// Files lists the source files (slash separated, relative to the source
// root) the recipe for p selects, optional components included, plus a few
// files that must be excluded.
func Files(p platform.Platform, cfg *config.Config) []string {
	var files []string
	switch p {
	case platform.Windows:
		files = append(commonFiles(cfg), windowsFiles(cfg)...)
	case platform.Darwin:
		files = append(commonFiles(cfg), darwinFiles(cfg)...)
	case platform.LinuxX86:
		files = append(commonFiles(cfg), linuxFiles(cfg)...)
		files = append(files, linuxX86Files(cfg)...)
	case platform.LinuxX86_64:
		files = append(commonFiles(cfg), linuxFiles(cfg)...)
		files = append(files, "secondlife-i686.supp")
	}
	return files
}

func commonFiles(cfg *config.Config) []string {
	files := []string{
		"../../scripts/messages/message_template.msg",
		"../../etc/message.xml",

		"app_settings/settings.xml",
		"app_settings/logcontrol.xml",
		"app_settings/.svn/entries",
		"app_settings/CA.pem",
		"app_settings/keys.ini",
		"app_settings/static_data.db2",
		"app_settings/shaders/class1/lighting.glsl",
		"app_settings/shaders/.svn/entries",
		"app_settings/windlight/skies/Default.xml",
		"app_settings/dictionaries/en_us.dic",

		"character/avatar_lad.xml",
		"character/avatar_eye.llm",
		"character/head_bump.tga",

		"fonts/DejaVuSans.ttf",
		"fonts/LICENSE.txt",

		"skins/paths.xml",
		"skins/default/sounds/click.dsf",
		"skins/default/textures/arrow.tga",
		"skins/default/textures/badge.j2c",
		"skins/default/textures/splash.jpg",
		"skins/default/textures/icon.png",
		"skins/default/textures/textures.xml",
		"skins/default/xui/en-us/floater_about.xml",
		"skins/default/colors.xml",
		"skins/default/html/btn.png",
		"skins/default/html/en-us/loading/index.html",
		"skins/default/html/en-us/loading/spinner.gif",
		"skins/dark/textures/arrow.tga",
		"skins/dark/colors.xml",

		"gpu_table.txt",
	}
	return append(files, cfg.Product.Readmes...)
}

func windowsFiles(cfg *config.Config) []string {
	const c = "Release"
	lib := "../../libraries/i686-win32/lib/release/"
	files := []string{
		"release/" + cfg.Product.BuiltExe,
		"../llplugin/slplugin/" + c + "/SLPlugin.exe",
		"../llkdu/" + c + "/llkdu.dll",
		"licenses-win32.txt",
		"featuretable.txt",
		c + "/libhunspell.dll",
		"dbghelp.dll",
		"fmod.dll",
		c + "/libapr-1.dll",
		c + "/libaprutil-1.dll",
		c + "/libapriconv-1.dll",
		c + "/llcommon.dll",
		"libcollada14dom21.dll",
		"glod.dll",
		lib + "openjpeg.dll",
		"../media_plugins/quicktime/" + c + "/media_plugin_quicktime.dll",
		"../media_plugins/webkit/" + c + "/media_plugin_webkit.dll",
		c + "/msvcr80.dll",
		c + "/msvcp80.dll",
		c + "/Microsoft.VC80.CRT.manifest",
		c + "/" + cfg.Product.BuiltExe + ".config",
		"vivox-runtime/i686-win32/SLVoice.exe",
		"vivox-runtime/i686-win32/alut.dll",
		"vivox-runtime/i686-win32/vivoxsdk.dll",
		"vivox-runtime/i686-win32/ortp.dll",
		"vivox-runtime/i686-win32/wrap_oal.dll",
		"../win_crash_logger/release/windows-crash-logger.exe",
		lib + "libtcmalloc_minimal.dll",
	}
	for _, f := range []string{"libeay32.dll", "qtcore4.dll", "qtgui4.dll", "qtnetwork4.dll", "qtopengl4.dll", "qtwebkit4.dll", "ssleay32.dll"} {
		files = append(files, lib+f)
	}
	for _, f := range []string{"qgif4.dll", "qico4.dll", "qjpeg4.dll", "qmng4.dll", "qsvg4.dll", "qtiff4.dll"} {
		files = append(files, lib+"imageformats/"+f)
	}
	return files
}

func darwinFiles(cfg *config.Config) []string {
	const c = "Release"
	app := cfg.Product.AppName
	lib := "../../libraries/universal-darwin/lib_release/"
	files := []string{
		c + "/" + app + ".app/Contents/MacOS/" + app,
		c + "/" + app + ".app/Contents/PkgInfo",
		cfg.Product.InfoPlist,
		"cursors_mac/UI_CURSOR_ARROW.tif",
		"licenses-mac.txt",
		"featuretable_mac.txt",
		"SecondLife.nib",
		cfg.Product.MacIcon,
		"vivox-runtime/universal-darwin/libalut.dylib",
		"vivox-runtime/universal-darwin/libopenal.dylib",
		"vivox-runtime/universal-darwin/libortp.dylib",
		"vivox-runtime/universal-darwin/libvivoxsdk.dylib",
		"vivox-runtime/universal-darwin/SLVoice",
		c + "/libfmodwrapper.dylib",
		"../mac_crash_logger/" + c + "/mac-crash-logger.app/Contents/MacOS/mac-crash-logger",
		"../llplugin/slplugin/" + c + "/SLPlugin.app/Contents/MacOS/SLPlugin",
		"../media_plugins/quicktime/" + c + "/media_plugin_quicktime.dylib",
		"../media_plugins/webkit/" + c + "/media_plugin_webkit.dylib",
	}
	for _, f := range []string{
		"libhunspell-1.3.0.dylib", "libndofdev.dylib", "libllkdu.dylib", "libllcommon.dylib",
		"libapr-1.0.dylib", "libaprutil-1.0.dylib", "libexpat.0.5.0.dylib",
		"libcollada14dom.dylib", "libGLOD.dylib", "libllqtwebkit.dylib",
	} {
		files = append(files, lib+f)
	}
	for _, l := range cfg.Darwin.Locales {
		files = append(files, l+".lproj/language.txt")
	}
	return files
}

func linuxFiles(cfg *config.Config) []string {
	return []string{
		"licenses-linux.txt",
		"res/" + cfg.Product.Icon,
		"linux_tools/client-readme.txt",
		"linux_tools/client-readme-voice.txt",
		"linux_tools/client-readme-joystick.txt",
		"linux_tools/wrapper.sh",
		"linux_tools/handle_secondlifeprotocol.sh",
		"linux_tools/register_secondlifeprotocol.sh",
		"linux_tools/launch_url.sh",
		"secondlife-bin",
		"secondlife-stripped",
		"../linux_crash_logger/linux-crash-logger",
		"../linux_crash_logger/linux-crash-logger-stripped",
		"../llplugin/slplugin/SLPlugin",
		"res-sdl/arrow.BMP",
		"res-sdl/cursors/hand.BMP",
		"../media_plugins/webkit/libmedia_plugin_webkit.so",
		"../media_plugins/gstreamer010/libmedia_plugin_gstreamer010.so",
		"../llcommon/libllcommon.so",
		"featuretable_linux.txt",
	}
}

func linuxX86Files(_ *config.Config) []string {
	lib := "../../libraries/i686-linux/lib_release_client/"
	files := []string{
		lib + "libllkdu.so",
		"vivox-runtime/i686-linux/SLVoice",
		"vivox-runtime/i686-linux/libortp.so",
		"vivox-runtime/i686-linux/libvivoxsdk.so",
	}
	for _, f := range []string{
		"libkdu_v42R.so", "libdb-4.2.so", "libfmod-3.75.so",
		"libtcmalloc.so", "libtcmalloc.so.0", "libtcmalloc.so.0.2.2",
		"libapr-1.so.0", "libaprutil-1.so.0", "libdb-5.1.so", "libcrypto.so.0.9.7",
		"libexpat.so.1", "libssl.so.0.9.7", "libhunspell-1.3.so.0.0.0", "libuuid.so.1",
		"libSDL-1.2.so.0", "libELFIO.so", "libopenjpeg.so.1.3.0", "libalut.so",
		"libopenal.so", "libcollada14dom.so", "libminizip.so", "libglod.so",
	} {
		files = append(files, lib+f)
	}
	return files
}

// Descriptor returns a release build description for p matching Config.
func Descriptor(p platform.Platform, cfg *config.Config) descriptor.Descriptor {
	return descriptor.Descriptor{
		Product: descriptor.Product{
			AppName:         cfg.Product.AppName,
			InstallerPrefix: cfg.Product.InstallerPrefix,
			DefaultChannel:  cfg.Product.DefaultChannel,
			DefaultGrid:     cfg.Product.DefaultGrid,
		},
		Platform:      p,
		Configuration: "Release",
		BuildType:     "Release",
		Channel:       cfg.Product.DefaultChannel,
		Arch:          p.Arch(),
		Version:       descriptor.Version{"1", "30", "2", "7"},
		Actions:       []string{descriptor.ActionCopy, descriptor.ActionPackage},
	}
}
