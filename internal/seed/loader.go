package seed

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/viant/afs"
	"github.com/viant/afs/option"
	"github.com/viant/afs/storage"
)

// excludedDirs are never scanned for seed files.
var excludedDirs = []string{".git", ".svn"}

// Loader discovers seed files for an environment under a base directory and
// any number of extra directories.
type Loader struct {
	fs      afs.Service
	base    string
	extra   []string
	sources []Seeds
	logger  Logger
}

// NewLoader creates a Loader reading <base>/<environment> then each <extra>/<environment>.
// Directories may be local paths or any URL afs understands.
func NewLoader(fs afs.Service, base string, extra []string, logger Logger) *Loader {
	if fs == nil {
		fs = afs.New()
	}
	if logger == nil {
		logger = nopLogger{}
	}
	return &Loader{fs: fs, base: base, extra: extra, logger: logger}
}

// WithSources registers seeds defined in code. They are merged after all directories.
func (l *Loader) WithSources(sources ...Seeds) *Loader {
	l.sources = append(l.sources, sources...)
	return l
}

// Load returns the merged seed set for environment.
func (l *Loader) Load(ctx context.Context, environment string) (Seeds, error) {
	if environment == "" {
		environment = DefaultEnvironment
	}

	dir := joinURL(l.base, environment)
	l.logger.Debug("seeding from", "path", dir, "environment", environment)
	seeds, err := l.loadDir(ctx, dir)
	if err != nil {
		return nil, err
	}

	for _, extra := range l.extra {
		extraSeeds, err := l.loadDir(ctx, joinURL(extra, environment))
		if err != nil {
			return nil, err
		}
		seeds = Merge(seeds, extraSeeds)
	}
	for _, src := range l.sources {
		seeds = Merge(seeds, src)
	}
	return seeds, nil
}

// loadDir reads every seed file below dir. A missing dir yields no seeds.
func (l *Loader) loadDir(ctx context.Context, dir string) (Seeds, error) {
	seeds := Seeds{}
	exists, err := l.fs.Exists(ctx, dir)
	if err != nil || !exists {
		return seeds, nil
	}

	objects, err := l.fs.List(ctx, dir, option.NewRecursive(true))
	if err != nil {
		return nil, fmt.Errorf("list seeds in %s: %w", dir, err)
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].URL() < objects[j].URL() })

	for _, object := range objects {
		if object.IsDir() || excluded(object) {
			continue
		}
		key, ok := seedKey(object.Name())
		if !ok {
			continue
		}
		data, err := l.fs.Download(ctx, object)
		if err != nil {
			return nil, fmt.Errorf("read seed %s: %w", object.URL(), err)
		}
		payload, err := decode(object.Name(), data)
		if err != nil {
			return nil, fmt.Errorf("seed %s: %w", object.URL(), err)
		}
		seeds = Merge(seeds, Seeds{key: payload})
	}
	return seeds, nil
}

func excluded(object storage.Object) bool {
	for _, segment := range strings.Split(object.URL(), "/") {
		for _, dir := range excludedDirs {
			if segment == dir {
				return true
			}
		}
	}
	return false
}

func joinURL(base, elem string) string {
	if strings.Contains(base, "://") {
		return strings.TrimRight(base, "/") + "/" + elem
	}
	return path.Join(base, elem)
}
