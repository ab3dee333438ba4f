package main

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/arcmantle/chronicle"
	"github.com/arcmantle/chronicle/internal/container"
	"github.com/arcmantle/chronicle/internal/dispatch"
	"github.com/arcmantle/chronicle/internal/merge3"
	"github.com/arcmantle/chronicle/internal/pathutil"
	"github.com/arcmantle/chronicle/internal/trie"
)

func main() {
	log := buildLogger().Named("main")

	root, err := chronicle.New(map[string]any{
		"profile": map[string]any{"name": "ada", "plan": "free"},
		"tags":    []any{"alpha", "beta"},
	}, chronicle.WithLogger(log))
	if err != nil {
		log.Fatal("wrap failed", zap.Error(err))
	}

	unsub := root.Listen(pathutil.Path{"profile", "plan"}, trie.ModeExact,
		func(path pathutil.Path, newValue, oldValue any, meta dispatch.Meta) {
			log.Info("plan changed",
				zap.String("path", path.String()),
				zap.Any("from", oldValue),
				zap.Any("to", newValue),
				zap.String("group", meta.GroupID),
			)
		}, dispatch.Options{})
	defer unsub()

	profile, ok := root.Tree().(*container.Record).Get("profile")
	if !ok {
		log.Fatal("profile field missing")
	}
	rec := profile.(*container.Record)

	root.Batch(func() {
		rec.Set("plan", "pro")
		rec.Set("name", "ada lovelace")
	})

	fmt.Println("after upgrade:", root.Unwrap())

	root.UndoGroups(1)
	fmt.Println("after undoing the batch:", root.Unwrap())

	root.MarkPristine()
	rec.Set("plan", "pro")
	diffs := root.Diff()
	for _, d := range diffs {
		log.Info("pristine diff", zap.String("path", d.Path.String()), zap.String("tag", d.Tag.String()))
	}

	result, err := root.Merge(map[string]any{
		"profile": map[string]any{"name": "ada lovelace", "plan": "enterprise"},
		"tags":    []any{"alpha", "beta"},
	}, merge3.Options{})
	if err != nil {
		log.Fatal("merge failed", zap.Error(err))
	}
	log.Info("merge finished", zap.Bool("success", result.Success), zap.Int("conflicts", len(result.Conflicts)))
	fmt.Println("final state:", root.Unwrap())
}

func buildLogger() *zap.Logger {
	logConfig := zap.NewDevelopmentConfig()
	logConfig.EncoderConfig.TimeKey = ""
	logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logConfig.DisableStacktrace = true
	logConfig.DisableCaller = true
	logConfig.Level.SetLevel(zap.InfoLevel)
	return zap.Must(logConfig.Build())
}
