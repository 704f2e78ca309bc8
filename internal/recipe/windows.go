package recipe

import (
	"context"
	"path"

	"github.com/oarkflow/stagepack/internal/manifest"
)

const windowsLibraries = "i686-win32/lib/release"

var buildConfigurations = []string{"debug", "release", "relwithdebinfo"}

func windowsSteps() []Step {
	return []Step{
		{Name: "executable", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			// The executable may come from any configuration directory.
			candidates := make([]string, 0, len(buildConfigurations))
			for _, c := range buildConfigurations {
				candidates = append(candidates, path.Join(c, s.Config.Product.BuiltExe))
			}
			return s.resolveCopy(f, FinalExe(s.Config), candidates...)
		}},
		{Name: "plugin-host", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.copy(f, path.Join("../llplugin/slplugin", s.configuration(), "SLPlugin.exe"), "SLPlugin.exe")
		}},
		{Name: "codec", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.Optional("codec", func() error {
				return s.resolveCopy(f, "llkdu.dll",
					path.Join("../llkdu", s.configuration(), "llkdu.dll"),
					s.library(windowsLibraries, "llkdu.dll"))
			})
		}},
		{Name: "licenses", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			if err := s.copy(f, "licenses-win32.txt", "licenses.txt"); err != nil {
				return err
			}
			return s.copy(f, "featuretable.txt", "")
		}},
		{Name: "runtime", Run: stageWindowsRuntime},
		{Name: "mesh", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.Optional("mesh", func() error {
				collada := "libcollada14dom21.dll"
				if s.Desc.IsDebug() {
					collada = "libcollada14dom21-d.dll"
				}
				return s.copyAll(f, collada, "glod.dll")
			})
		}},
		{Name: "texture-codec", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.copy(f.Push(s.library(windowsLibraries, ""), ""), "openjpeg.dll", "")
		}},
		{Name: "media-plugins", Run: stageWindowsPlugins},
		{Name: "crt", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			cfgDir := f.Push(s.configuration(), "")
			if s.Desc.IsDebug() {
				return s.copyAll(cfgDir, "msvcr80d.dll", "msvcp80d.dll", "Microsoft.VC80.DebugCRT.manifest")
			}
			return s.copyAll(cfgDir, "msvcr80.dll", "msvcp80.dll", "Microsoft.VC80.CRT.manifest")
		}},
		{Name: "exe-config", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			// The .config file name has to follow the renamed executable.
			return s.copy(f, path.Join(s.configuration(), s.Config.Product.BuiltExe+".config"), FinalExe(s.Config)+".config")
		}},
		{Name: "voice", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.copyAll(f.Push("vivox-runtime/i686-win32", ""),
				"SLVoice.exe", "alut.dll", "vivoxsdk.dll", "ortp.dll", "wrap_oal.dll")
		}},
		{Name: "crash-logger", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			candidates := make([]string, 0, len(buildConfigurations))
			for _, c := range buildConfigurations {
				candidates = append(candidates, path.Join("../win_crash_logger", c, "windows-crash-logger.exe"))
			}
			return s.resolveCopy(f, "windows-crash-logger.exe", candidates...)
		}},
		{Name: "allocator", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.Optional("tcmalloc", func() error {
				lib := "libtcmalloc_minimal.dll"
				if s.Desc.IsDebug() {
					lib = "libtcmalloc_minimal-debug.dll"
				}
				return s.copy(f.Push(s.library(windowsLibraries, ""), ""), lib, "")
			})
		}},
	}
}

func stageWindowsRuntime(_ context.Context, s *Session, f manifest.Frame) error {
	cfgDir := f.Push(s.configuration(), "")

	// Spell checking.
	if err := s.copy(cfgDir, "libhunspell.dll", ""); err != nil {
		return err
	}
	// Minidump generation and sound.
	if err := s.copyAll(f, "dbghelp.dll", "fmod.dll"); err != nil {
		return err
	}
	return s.copyAll(cfgDir, "libapr-1.dll", "libaprutil-1.dll", "libapriconv-1.dll", "llcommon.dll")
}

func stageWindowsPlugins(_ context.Context, s *Session, f manifest.Frame) error {
	c := s.configuration()
	if err := s.copy(f.Push(path.Join("../media_plugins/quicktime", c), "llplugin"), "media_plugin_quicktime.dll", ""); err != nil {
		return err
	}
	if err := s.copy(f.Push(path.Join("../media_plugins/webkit", c), "llplugin"), "media_plugin_webkit.dll", ""); err != nil {
		return err
	}

	runtime := f.Push(s.library(windowsLibraries, ""), "llplugin")
	if err := s.copyAll(runtime,
		"libeay32.dll", "qtcore4.dll", "qtgui4.dll", "qtnetwork4.dll",
		"qtopengl4.dll", "qtwebkit4.dll", "ssleay32.dll",
	); err != nil {
		return err
	}

	formats := f.Push(s.library(windowsLibraries, "imageformats"), "llplugin/imageformats")
	return s.copyAll(formats, "qgif4.dll", "qico4.dll", "qjpeg4.dll", "qmng4.dll", "qsvg4.dll", "qtiff4.dll")
}
