// Command rgblink places object sections into a target's memory regions,
// emitting a linked ROM image plus an optional map file and symbol file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/bankforge/rgblink/internal/cliutil"
	"github.com/bankforge/rgblink/internal/linkcache"
	"github.com/bankforge/rgblink/internal/memmodel"
	"github.com/bankforge/rgblink/internal/placer"
	"github.com/bankforge/rgblink/internal/report"
	"github.com/bankforge/rgblink/internal/script"
	"github.com/bankforge/rgblink/internal/section"
	"github.com/bankforge/rgblink/internal/watch"
)

var flagDescriptions = []cliutil.FlagInfo{
	{Name: "n", Usage: "write a symbol file to this path"},
	{Name: "m", Usage: "write a map file to this path"},
	{Name: "l", Usage: "apply a linker script (JSON records) from this path"},
	{Name: "O", Usage: "emit an overlay; every section must already be fully fixed"},
	{Name: "o", Usage: "write the linked ROM image to this path", Required: true},
	{Name: "w", Usage: "watch the input object files and re-link on change"},
	{Name: "c", Usage: "cache placement results under .rgblink-cache and reuse them when inputs are unchanged"},
	{Name: "x", Usage: "load a custom memory model from this JSON path instead of the Game Boy default"},
}

func main() {
	symPath := flag.String("n", "", "")
	mapPath := flag.String("m", "", "")
	scriptPath := flag.String("l", "", "")
	overlayPath := flag.String("O", "", "")
	outPath := flag.String("o", "", "")
	watchMode := flag.Bool("w", false, "")
	useCache := flag.Bool("c", false, "")
	modelPath := flag.String("x", "", "")
	showVersion := flag.Bool("v", false, "")
	verbose := flag.Bool("verbose", false, "")

	flag.Usage = func() { cliutil.PrintUsage("rgblink", flagDescriptions) }
	flag.Parse()

	if *showVersion {
		cliutil.PrintVersion("rgblink", false)
		return
	}

	objectPaths := flag.Args()
	if len(objectPaths) == 0 || *outPath == "" {
		cliutil.PrintUsage("rgblink", flagDescriptions)
		os.Exit(2)
	}

	logger := cliutil.NewLogger(*verbose, false)

	cfg := linkConfig{
		symPath: *symPath, mapPath: *mapPath, scriptPath: *scriptPath,
		overlayPath: *overlayPath, outPath: *outPath, useCache: *useCache, modelPath: *modelPath,
	}

	if *watchMode {
		runWatchLoop(objectPaths, cfg, logger)
		return
	}

	if err := linkOnce(context.Background(), objectPaths, cfg, logger); err != nil {
		cliutil.HandleError(err, logger)
	}
}

type linkConfig struct {
	symPath     string
	mapPath     string
	scriptPath  string
	overlayPath string
	outPath     string
	useCache    bool
	modelPath   string
}

func runWatchLoop(objectPaths []string, cfg linkConfig, logger *cliutil.Logger) {
	w, err := watch.New()
	if err != nil {
		cliutil.HandleError(err, logger)
	}
	defer w.Close()

	for _, p := range objectPaths {
		if err := w.Add(p); err != nil {
			cliutil.HandleError(err, logger)
		}
	}

	if err := linkOnce(context.Background(), objectPaths, cfg, logger); err != nil {
		logger.Error("%v", err)
	}

	for {
		select {
		case ev := <-w.Events():
			if !ev.Op.TriggersRelink() {
				continue
			}

			logger.Info("%s changed, re-linking", ev.Path)

			if err := linkOnce(context.Background(), objectPaths, cfg, logger); err != nil {
				logger.Error("%v", err)
			}
		case err := <-w.Errors():
			logger.Warn("watch error: %v", err)
		}
	}
}

func linkOnce(ctx context.Context, objectPaths []string, cfg linkConfig, logger *cliutil.Logger) error {
	model, err := loadModel(cfg.modelPath)
	if err != nil {
		return err
	}

	secs, err := loadSections(objectPaths)
	if err != nil {
		return err
	}

	var scriptBytes []byte
	if cfg.scriptPath != "" {
		scriptBytes, err = os.ReadFile(cfg.scriptPath)
		if err != nil {
			return fmt.Errorf("reading script: %w", err)
		}
	}

	var cache *linkcache.Cache

	var cacheKey linkcache.Key

	if cfg.useCache {
		cache, err = linkcache.Open(".rgblink-cache")
		if err != nil {
			return err
		}

		cacheKey = linkcache.Fingerprint(scriptBytes, secs, []byte(fmt.Sprintf("%v", model)))

		if entry, ok, err := cache.Get(cacheKey); err == nil && ok {
			logger.Info("cache hit, reusing previous placement")
			linkcache.Apply(entry, secs)

			return finish(secs, model, cfg, entry.MapFile, entry.SymFile)
		}
	}

	if len(scriptBytes) > 0 {
		var sf scriptFile
		if err := json.Unmarshal(scriptBytes, &sf); err != nil {
			return fmt.Errorf("parsing script: %w", err)
		}

		if sf.MinVersion != "" {
			if err := script.CheckMinVersion(sf.MinVersion, cliutil.Version); err != nil {
				return err
			}
		}

		lookup := func(name string) (*section.Section, bool) {
			for _, s := range secs {
				if s.Name == name {
					return s, true
				}
			}

			return nil, false
		}

		for _, diag := range script.Apply(script.NewSliceStream(sf.Records), lookup) {
			logger.Warn("%v", diag)
		}
	}

	overlay := cfg.overlayPath != ""

	pc := placer.NewContext(model, overlay)
	defer pc.Teardown()

	if err := pc.AssignSections(ctx, secs); err != nil {
		return err
	}

	mapFile, symFile := report.Render(model, secs)

	if cache != nil {
		if err := cache.Put(cacheKey, linkcache.Snapshot(secs, mapFile, symFile)); err != nil {
			logger.Warn("failed to persist link cache: %v", err)
		}
	}

	return finish(secs, model, cfg, mapFile, symFile)
}

func finish(secs []*section.Section, model *memmodel.Model, cfg linkConfig, mapFile, symFile string) error {
	if cfg.mapPath != "" {
		if err := os.WriteFile(cfg.mapPath, []byte(mapFile), 0o644); err != nil {
			return fmt.Errorf("writing map file: %w", err)
		}
	}

	if cfg.symPath != "" {
		if err := os.WriteFile(cfg.symPath, []byte(symFile), 0o644); err != nil {
			return fmt.Errorf("writing symbol file: %w", err)
		}
	}

	image := buildImage(model, secs)
	if err := os.WriteFile(cfg.outPath, image, 0o644); err != nil {
		return fmt.Errorf("writing ROM image: %w", err)
	}

	return nil
}

// buildImage concatenates ROM0 and ROMX bank contents in bank order into a
// single flat image, the linker's final output artifact.
func buildImage(model *memmodel.Model, secs []*section.Section) []byte {
	romBanks := make(map[uint32][]byte)

	for _, r := range []section.Region{section.ROM0, section.ROMX} {
		lo, hi := model.BankRange(r)
		for b := lo; b <= hi; b++ {
			romBanks[b] = make([]byte, model.MaxSize(r))
		}
	}

	for _, s := range secs {
		if !s.Placed() || len(s.Payload) == 0 {
			continue
		}

		buf, ok := romBanks[s.Bank]
		if !ok {
			continue
		}

		r, _ := model.RegionOf(s.Bank)
		offset := int(s.Org) - int(model.StartAddr(r))

		if offset < 0 || offset+len(s.Payload) > len(buf) {
			continue
		}

		copy(buf[offset:], s.Payload)
	}

	lo, hi := model.BankRange(section.ROM0)
	romxLo, romxHi := model.BankRange(section.ROMX)

	var out []byte
	for b := lo; b <= hi; b++ {
		out = append(out, romBanks[b]...)
	}
	for b := romxLo; b <= romxHi; b++ {
		out = append(out, romBanks[b]...)
	}

	return out
}

type objectFile struct {
	Sections []*section.Section `json:"sections"`
}

func loadSections(paths []string) ([]*section.Section, error) {
	var all []*section.Section

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading object file %s: %w", p, err)
		}

		var obj objectFile
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("parsing object file %s: %w", p, err)
		}

		all = append(all, obj.Sections...)
	}

	return all, nil
}

type scriptFile struct {
	MinVersion string          `json:"min_version,omitempty"`
	Records    []script.Record `json:"records"`
}

func loadModel(path string) (*memmodel.Model, error) {
	if path == "" {
		return memmodel.DefaultModel(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading memory model %s: %w", path, err)
	}

	var named map[string]memmodel.RegionInfo
	if err := json.Unmarshal(data, &named); err != nil {
		return nil, fmt.Errorf("parsing memory model %s: %w", path, err)
	}

	var regions [section.NumRegions]memmodel.RegionInfo

	for name, info := range named {
		r, ok := section.ParseRegion(name)
		if !ok {
			return nil, fmt.Errorf("memory model %s: unknown region %q", path, name)
		}

		regions[r] = info
	}

	return memmodel.NewModel(regions)
}
