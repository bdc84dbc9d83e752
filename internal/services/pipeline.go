// Package services orchestrates the route-closure pipeline: sample a
// recorded route, resolve roads and regions, pull the traffic feed, match
// restrictions, and build the result table and map figure.
package services

import (
	"context"
	"io"
	"sort"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gpxstatus/server/internal/cache"
	"github.com/gpxstatus/server/internal/clients/jartic"
	"github.com/gpxstatus/server/internal/clients/nominatim"
	"github.com/gpxstatus/server/internal/clients/overpass"
	"github.com/gpxstatus/server/internal/lib/closures"
	"github.com/gpxstatus/server/internal/lib/geo"
	"github.com/gpxstatus/server/internal/lib/mapview"
	"github.com/gpxstatus/server/internal/lib/roadname"
	"github.com/gpxstatus/server/internal/lib/track"
)

// roadNumberConcurrency caps the Overpass fan-out. The public interpreter
// rate-limits aggressively.
const roadNumberConcurrency = 4

// Options configures a Pipeline.
type Options struct {
	SnapThresholdMeters float64
	MapStyle            string
	MapAccessToken      string
}

// Pipeline runs the closure check for one route at a time. All external
// clients and the geocode cache are injected, so a run has no hidden
// global state.
type Pipeline struct {
	geocoder *nominatim.Client
	roads    *overpass.Client
	traffic  *jartic.Client
	cache    *cache.GeocodeCache
	logger   *zap.Logger
	opts     Options
}

// NewPipeline creates a Pipeline. A nil logger disables logging.
func NewPipeline(geocoder *nominatim.Client, roads *overpass.Client, traffic *jartic.Client, geocodeCache *cache.GeocodeCache, logger *zap.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		geocoder: geocoder,
		roads:    roads,
		traffic:  traffic,
		cache:    geocodeCache,
		logger:   logger,
		opts:     opts,
	}
}

// Result is the outcome of one pipeline run.
type Result struct {
	AffectedRoads    closures.Table
	CompleteClosures closures.Table
	Figure           mapview.Figure
}

// Run checks a GPX route against the current traffic feed. Malformed input
// and an invalid interval are fatal; individual lookup failures are
// best-effort (dropped and logged) and a failing region does not abort the
// others.
func (p *Pipeline) Run(ctx context.Context, gpxSource io.Reader, interval int) (*Result, error) {
	route, err := track.Extract(gpxSource)
	if err != nil {
		return nil, err
	}
	p.logger.Info("extracted route", zap.Int("points", len(route)))

	sampled, err := track.Sample(route, interval)
	if err != nil {
		return nil, err
	}
	p.logger.Info("sampled route", zap.Int("points", len(sampled)), zap.Int("interval", interval))

	roadNames, regions := p.resolveRoads(ctx, sampled)
	p.logger.Info("resolved roads",
		zap.Strings("roads", roadNames),
		zap.Strings("regions", regions))

	numbers := p.roadNumbers(ctx, roadNames)

	feeds := p.fetchFeeds(ctx, regions)

	records := p.matchRecords(numbers, feeds)

	all, complete := closures.Classify(records)
	p.logger.Info("classified restrictions",
		zap.Int("affected", len(all.Records)),
		zap.Int("complete_closures", len(complete.Records)))

	figure := mapview.Build(route, complete.ClosureSections(), mapview.Options{
		Style:           p.opts.MapStyle,
		AccessToken:     p.opts.MapAccessToken,
		ThresholdMeters: p.opts.SnapThresholdMeters,
	})

	return &Result{
		AffectedRoads:    all,
		CompleteClosures: complete,
		Figure:           figure,
	}, nil
}

// resolveRoads reverse-geocodes every sampled point concurrently and joins
// before returning. Failed lookups are dropped, not fatal: the run should
// survive a flaky geocoder. Output sets are deduplicated; points without a
// road name or region code contribute nothing.
func (p *Pipeline) resolveRoads(ctx context.Context, sampled []geo.Point) (roadNames, regions []string) {
	addresses := make([]nominatim.Address, len(sampled))
	resolved := make([]bool, len(sampled))

	g, gctx := errgroup.WithContext(ctx)
	for i, point := range sampled {
		i, point := i, point
		g.Go(func() error {
			addr, err := p.cache.GetOrFetch(gctx, point.Latitude, point.Longitude, func(fctx context.Context) (nominatim.Address, error) {
				return p.geocoder.Reverse(fctx, point.Latitude, point.Longitude)
			})
			if err != nil {
				p.logger.Warn("dropping point, reverse geocode failed",
					zap.Float64("lat", point.Latitude),
					zap.Float64("lon", point.Longitude),
					zap.Error(err))
				return nil
			}
			addresses[i] = addr
			resolved[i] = true
			return nil
		})
	}
	// Workers swallow their own errors, so Wait only joins.
	_ = g.Wait()

	nameSet := make(map[string]struct{})
	regionSet := make(map[string]struct{})
	for i, addr := range addresses {
		if !resolved[i] {
			continue
		}
		if addr.Road != "" {
			nameSet[addr.Road] = struct{}{}
		}
		if addr.RegionCode != "" {
			regionSet[addr.RegionCode] = struct{}{}
		}
	}
	return sortedKeys(nameSet), sortedKeys(regionSet)
}

// roadNumbers maps each road name to its canonical road number via
// Overpass, with bounded concurrency. A failed or refless lookup falls
// back to the original name.
func (p *Pipeline) roadNumbers(ctx context.Context, roadNames []string) map[string]string {
	numbers := make(map[string]string, len(roadNames))
	for _, name := range roadNames {
		numbers[name] = name
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(roadNumberConcurrency)

	results := make([]string, len(roadNames))
	for i, name := range roadNames {
		i, name := i, name
		g.Go(func() error {
			ref, err := p.roads.RoadRef(gctx, name)
			if err != nil {
				p.logger.Warn("road number lookup failed, using road name",
					zap.String("road", name), zap.Error(err))
				return nil
			}
			results[i] = ref
			return nil
		})
	}
	_ = g.Wait()

	for i, name := range roadNames {
		numbers[name] = roadname.Canonical(name, results[i])
	}
	return numbers
}

// regionFeed pairs a region code with its restriction payload.
type regionFeed struct {
	region     string
	collection *jartic.FeatureCollection
}

// fetchFeeds pulls the restriction feed for each region. A failing region
// is logged and skipped so the others still contribute.
func (p *Pipeline) fetchFeeds(ctx context.Context, regions []string) []regionFeed {
	var feeds []regionFeed
	for _, region := range regions {
		collection, err := p.traffic.RoadStatus(ctx, region)
		if err != nil {
			p.logger.Warn("traffic feed fetch failed, skipping region",
				zap.String("region", region), zap.Error(err))
			continue
		}
		p.logger.Info("fetched traffic feed",
			zap.String("region", region),
			zap.Int("features", len(collection.Features)))
		feeds = append(feeds, regionFeed{region: region, collection: collection})
	}
	return feeds
}

// matchRecords filters every region's features by each canonical road
// number and builds restriction records. Features without a restriction
// description are not actionable and are skipped.
func (p *Pipeline) matchRecords(numbers map[string]string, feeds []regionFeed) []closures.Record {
	var records []closures.Record
	for _, canonical := range sortedValues(numbers) {
		for _, feed := range feeds {
			names := make([]string, len(feed.collection.Features))
			for i, f := range feed.collection.Features {
				names[i] = f.Properties.RouteName
			}
			for _, idx := range roadname.MatchIndices(canonical, names) {
				props := feed.collection.Features[idx].Properties
				if props.RestrictionDescription == nil {
					continue
				}
				records = append(records, closures.NewRecord(
					props.WorkType,
					props.Direction,
					props.LocationDescription,
					props.Span,
					props.RouteName,
					*props.RestrictionDescription,
					feed.region,
				))
			}
		}
	}
	return records
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// sortedValues returns the distinct map values, sorted. The road-name to
// road-number mapping is many-to-one, and one canonical road should only
// be matched once.
func sortedValues(m map[string]string) []string {
	set := make(map[string]struct{}, len(m))
	for _, v := range m {
		set[v] = struct{}{}
	}
	return sortedKeys(set)
}
