package recipe

import (
	"context"
	"path"

	"github.com/charmbracelet/log"

	"github.com/oarkflow/stagepack/internal/descriptor"
	"github.com/oarkflow/stagepack/internal/manifest"
)

const darwinLibraries = "universal-darwin/lib_release"

// Libraries linked into the helper bundles when the common library was
// staged.
var helperBundleLibraries = []string{
	"libllcommon.dylib",
	"libapr-1.0.dylib",
	"libaprutil-1.0.dylib",
	"libexpat.0.5.0.dylib",
	"libexception_handler.dylib",
}

var helperBundles = []string{"mac-crash-logger.app", "SLPlugin.app"}

func darwinSteps() []Step {
	return []Step{
		{Name: "bundle", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			// Copy the built bundle's contents into the staging root.
			return s.copy(f, path.Join(s.configuration(), s.Config.Product.AppName+".app"), ".")
		}},
		{Name: "contents", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			contents := f.Push("", "Contents")
			if err := s.copy(contents, s.Config.Product.InfoPlist, "Info.plist"); err != nil {
				return err
			}
			if err := s.copy(contents, s.library(darwinLibraries, "libhunspell-1.3.0.dylib"), "MacOS/libhunspell-1.2.dylib"); err != nil {
				return err
			}
			return s.copy(contents, s.library(darwinLibraries, "libndofdev.dylib"), "MacOS/libndofdev.dylib")
		}},
		{Name: "resources", Run: func(ctx context.Context, s *Session, f manifest.Frame) error {
			return s.Run(ctx, f.Push("", "Contents/Resources"), concat(contentSteps(), darwinResourceSteps()))
		}},
		{Name: "strip", Run: stripDarwinBinary},
	}
}

func darwinResourceSteps() []Step {
	return []Step{
		{Name: "cursors", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.copy(f.Sub("cursors_mac"), "*.tif", "")
		}},
		{Name: "documents", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			if err := s.copy(f, "licenses-mac.txt", "licenses.txt"); err != nil {
				return err
			}
			return s.copyAll(f, "featuretable_mac.txt", "SecondLife.nib", s.Config.Product.MacIcon)
		}},
		{Name: "locales", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			for _, l := range s.Config.Darwin.Locales {
				if err := s.copy(f, l+".lproj", ""); err != nil {
					return err
				}
			}
			return nil
		}},
		{Name: "voice", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			for _, lib := range []string{"libalut.dylib", "libopenal.dylib", "libortp.dylib", "libvivoxsdk.dylib", "SLVoice"} {
				if err := s.copy(f, path.Join("vivox-runtime/universal-darwin", lib), lib); err != nil {
					return err
				}
			}
			return nil
		}},
		{Name: "libraries", Run: stageDarwinLibraries},
		{Name: "helpers", Run: stageDarwinHelpers},
		{Name: "media-plugins", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			c := s.configuration()
			plugins := f.Push("", "llplugin")
			if err := s.copy(plugins, path.Join("../media_plugins/quicktime", c, "media_plugin_quicktime.dylib"), "media_plugin_quicktime.dylib"); err != nil {
				return err
			}
			if err := s.copy(plugins, path.Join("../media_plugins/webkit", c, "media_plugin_webkit.dylib"), "media_plugin_webkit.dylib"); err != nil {
				return err
			}
			return s.copy(plugins, s.library(darwinLibraries, "libllqtwebkit.dylib"), "libllqtwebkit.dylib")
		}},
		{Name: "arguments", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			flags, err := s.flagsList()
			if err != nil {
				return err
			}
			return s.Builder.PutInFile(f, flags, "arguments.txt")
		}},
	}
}

func stageDarwinLibraries(_ context.Context, s *Session, f manifest.Frame) error {
	c := s.configuration()

	// Prefer a freshly built library over the prebuilt one.
	for _, l := range []struct{ component, lib string }{
		{"codec", "llkdu"},
		{"common", "llcommon"},
	} {
		lib := l.lib
		libfile := "lib" + lib + ".dylib"
		if err := s.Optional(l.component, func() error {
			return s.resolveCopy(f, libfile,
				path.Join("..", lib, c, libfile),
				s.library(darwinLibraries, libfile))
		}); err != nil {
			return err
		}
	}

	for _, lib := range []string{
		"libapr-1.0.dylib",
		"libaprutil-1.0.dylib",
		"libexpat.0.5.0.dylib",
		"libcollada14dom.dylib",
		"libGLOD.dylib",
	} {
		if err := s.copy(f, s.library(darwinLibraries, lib), lib); err != nil {
			return err
		}
	}

	return s.Optional("fmod", func() error {
		return s.copy(f, path.Join(c, "libfmodwrapper.dylib"), "libfmodwrapper.dylib")
	})
}

func stageDarwinHelpers(_ context.Context, s *Session, f manifest.Frame) error {
	c := s.configuration()
	if err := s.copy(f, path.Join("../mac_crash_logger", c, "mac-crash-logger.app"), "mac-crash-logger.app"); err != nil {
		return err
	}
	if err := s.copy(f, path.Join("../llplugin/slplugin", c, "SLPlugin.app"), "SLPlugin.app"); err != nil {
		return err
	}

	if !s.Found("common") {
		return nil
	}
	// The helpers load the shared libraries from the main bundle's
	// Resources directory, three levels up from their own.
	for _, lib := range helperBundleLibraries {
		for _, bundle := range helperBundles {
			if err := s.Builder.Symlink(f, path.Join("../../..", lib), path.Join(bundle, "Contents/Resources", lib)); err != nil {
				return err
			}
		}
	}
	return nil
}

// stripDarwinBinary strips the main binary of release builds that are about
// to be packaged, keeping enough symbols for readable backtraces.
func stripDarwinBinary(ctx context.Context, s *Session, f manifest.Frame) error {
	d := s.Desc
	if !d.IsRelease() || !(d.HasAction(descriptor.ActionPackage) || d.HasAction(descriptor.ActionUnpacked)) {
		log.Debug("Not stripping", "build_type", d.BuildType, "actions", d.Actions)
		return nil
	}

	binary := f.DstPath(path.Join("Contents/MacOS", s.Config.Product.AppName))
	args := append(append([]string(nil), s.Config.Darwin.StripFlags...), binary)
	if _, err := s.Runner.Run(ctx, "strip", args...); err != nil {
		return err
	}
	log.Info("Stripped", "binary", binary)
	return nil
}
