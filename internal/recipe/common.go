package recipe

import (
	"context"
	"path/filepath"

	"github.com/oarkflow/stagepack/internal/manifest"
)

// Patterns that never belong in a staging tree.
var defaultExclusions = []string{"*.svn*", ".git", ".DS_Store"}

func commonSteps() []Step {
	return concat([]Step{exclusionStep()}, contentSteps())
}

func exclusionStep() Step {
	return Step{Name: "exclusions", Run: func(_ context.Context, s *Session, _ manifest.Frame) error {
		for _, p := range defaultExclusions {
			if err := s.Builder.Exclude(p); err != nil {
				return err
			}
		}
		return nil
	}}
}

// contentSteps stage the data files every platform ships: settings,
// avatar data, fonts and skins.
func contentSteps() []Step {
	return []Step{
		{Name: "messages", Run: stageMessages},
		{Name: "app_settings", Run: stageSettings},
		{Name: "character", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.copyAll(f.Sub("character"), "*.llm", "*.xml", "*.tga")
		}},
		{Name: "fonts", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.copyAll(f.Sub("fonts"), "*.ttf", "*.txt")
		}},
		{Name: "skins", Run: stageSkins},
		{Name: "gpu_table", Run: func(_ context.Context, s *Session, f manifest.Frame) error {
			return s.copy(f, "gpu_table.txt", "")
		}},
	}
}

func stageMessages(_ context.Context, s *Session, f manifest.Frame) error {
	paths := s.Config.Paths
	if err := s.copy(f, filepath.Join(paths.Scripts, "messages", "message_template.msg"), "app_settings/message_template.msg"); err != nil {
		return err
	}
	if err := s.copy(f, filepath.Join(paths.Etc, "message.xml"), "app_settings/message.xml"); err != nil {
		return err
	}
	for _, readme := range s.Config.Product.Readmes {
		if err := s.copy(f, readme, filepath.Base(readme)); err != nil {
			return err
		}
	}
	return nil
}

func stageSettings(_ context.Context, s *Session, f manifest.Frame) error {
	settings := f.Sub("app_settings")
	for _, p := range []string{"logcontrol.xml", "logcontrol-dev.xml"} {
		if err := s.Builder.Exclude(p); err != nil {
			return err
		}
	}
	return s.copyAll(settings,
		"*.pem", "*.ini", "*.xml", "*.db2",
		"shaders", "windlight", "dictionaries",
	)
}

func stageSkins(_ context.Context, s *Session, f manifest.Frame) error {
	skins := f.Sub("skins")
	if err := s.copy(skins, "paths.xml", ""); err != nil {
		return err
	}

	// Pre-decoded sounds are only present in some checkouts.
	if err := s.Optional("sounds", func() error {
		return s.copy(skins.Sub("default/sounds"), "*.dsf", "")
	}); err != nil {
		return err
	}

	textures := skins.Sub("*/textures")
	if err := s.copyAll(textures, "*.tga", "*.j2c", "*.jpg", "*.png", "textures.xml"); err != nil {
		return err
	}

	if err := s.copyAll(skins, "*/xui/*/*.xml", "*/*.xml"); err != nil {
		return err
	}

	html := skins.Sub("*/html")
	return s.copyAll(html, "*.png", "*/*/*.html", "*/*/*.gif")
}
