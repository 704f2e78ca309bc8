package recipe

import (
	"context"
	"path"

	"github.com/oarkflow/stagepack/internal/manifest"
)

const linuxX86Libraries = "i686-linux/lib_release_client"

// Runtime libraries the i686 build cannot start without.
var linuxX86Runtime = []struct{ src, dst string }{
	{"libapr-1.so.0", ""},
	{"libaprutil-1.so.0", ""},
	{"libdb-5.1.so", ""},
	{"libcrypto.so.0.9.7", ""},
	{"libexpat.so.1", ""},
	{"libssl.so.0.9.7", ""},
	{"libhunspell-1.3.so.0.0.0", "libhunspell-1.3.so.0"},
	{"libuuid.so.1", ""},
	{"libSDL-1.2.so.0", ""},
	{"libELFIO.so", ""},
	{"libopenjpeg.so.1.3.0", "libopenjpeg.so.1.3"},
	{"libalut.so", ""},
	{"libopenal.so", "libopenal.so.1"},
	{"libcollada14dom.so", ""},
	{"libminizip.so", ""},
	{"libglod.so", ""},
}

func linuxSteps() []Step {
	return []Step{
		{Name: "documents", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			if err := s.copy(f, "licenses-linux.txt", "licenses.txt"); err != nil {
				return err
			}
			icon := s.Config.Product.Icon
			return s.copy(f, path.Join("res", icon), icon)
		}},
		{Name: "linux_tools", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			tools := f.Push("linux_tools", "")
			for _, c := range []struct{ src, dst string }{
				{"client-readme.txt", "README-linux.txt"},
				{"client-readme-voice.txt", "README-linux-voice.txt"},
				{"client-readme-joystick.txt", "README-linux-joystick.txt"},
				{"wrapper.sh", s.Config.Product.WrapperName},
				{"handle_secondlifeprotocol.sh", ""},
				{"register_secondlifeprotocol.sh", ""},
			} {
				if err := s.copy(tools, c.src, c.dst); err != nil {
					return err
				}
			}
			return nil
		}},
		{Name: "gridargs", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			flags, err := s.flagsList()
			if err != nil {
				return err
			}
			return s.Builder.PutInFile(f, flags, "gridargs.dat")
		}},
		{Name: "binaries", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			binary, logger := "secondlife-bin", "../linux_crash_logger/linux-crash-logger"
			if s.Desc.IsRelease() {
				binary, logger = "secondlife-stripped", "../linux_crash_logger/linux-crash-logger-stripped"
			}
			if err := s.copy(f, binary, path.Join("bin", s.Config.Product.BinaryName)); err != nil {
				return err
			}
			if err := s.copy(f, logger, "linux-crash-logger.bin"); err != nil {
				return err
			}
			if err := s.copy(f, "linux_tools/launch_url.sh", "launch_url.sh"); err != nil {
				return err
			}
			return s.copy(f, "../llplugin/slplugin/SLPlugin", "bin/SLPlugin")
		}},
		{Name: "res-sdl", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.copy(f.Sub("res-sdl"), "*", "")
		}},
		{Name: "media-plugins", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			plugins := f.Push("", "bin/llplugin")
			if err := s.copy(plugins, "../media_plugins/webkit/libmedia_plugin_webkit.so", "libmedia_plugin_webkit.so"); err != nil {
				return err
			}
			return s.copy(plugins, "../media_plugins/gstreamer010/libmedia_plugin_gstreamer010.so", "libmedia_plugin_gstreamer.so")
		}},
		{Name: "common", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			if err := s.copy(f, "../llcommon/libllcommon.so", "lib/libllcommon.so"); err != nil {
				return err
			}
			return s.copy(f, "featuretable_linux.txt", "")
		}},
	}
}

func linuxX86Steps() []Step {
	return []Step{
		{Name: "codec", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.Optional("codec", func() error {
				return s.resolveCopy(f, "bin/libllkdu.so",
					"../llkdu/libllkdu.so",
					s.library(linuxX86Libraries, "libllkdu.so"))
			})
		}},
		{Name: "libraries", Run: stageLinuxX86Libraries},
		{Name: "voice", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			const vivox = "vivox-runtime/i686-linux"
			if err := s.copy(f.Push(vivox, "bin"), "SLVoice", ""); err != nil {
				return err
			}
			return s.copyAll(f.Push(vivox, "lib"), "libortp.so", "libvivoxsdk.so")
		}},
	}
}

func stageLinuxX86Libraries(_ context.Context, s *Session, f manifest.Frame) error {
	libs := f.Push(s.library(linuxX86Libraries, ""), "lib")

	optional := []struct {
		component string
		files     []struct{ src, dst string }
	}{
		{"kdu", []struct{ src, dst string }{{"libkdu_v42R.so", "libkdu.so"}}},
		{"db", []struct{ src, dst string }{{"libdb-4.2.so", ""}}},
		{"fmod", []struct{ src, dst string }{{"libfmod-3.75.so", ""}}},
		{"tcmalloc", []struct{ src, dst string }{
			{"libtcmalloc.so", ""},
			{"libtcmalloc.so.0", ""},
			{"libtcmalloc.so.0.2.2", ""},
		}},
	}
	for _, o := range optional {
		files := o.files
		if err := s.Optional(o.component, func() error {
			for _, c := range files {
				if err := s.copy(libs, c.src, c.dst); err != nil {
					return err
				}
			}
			return nil
		}); err != nil {
			return err
		}
	}

	for _, c := range linuxX86Runtime {
		if err := s.copy(libs, c.src, c.dst); err != nil {
			return err
		}
	}
	return nil
}

func linuxX86_64Steps() []Step {
	return []Step{
		{Name: "valgrind", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			// Suppression file for the valgrind debugging tool.
			return s.copy(f, "secondlife-i686.supp", "")
		}},
	}
}
