package slicer

import (
	"sort"

	"github.com/go-kit/log"

	"maf/errs"
	"maf/params"
)

type factory func(p params.Params, logger log.Logger) (Slicer, error)

var registry = map[string]factory{
	"UniSlicer":        newUniFromParams,
	"OneDSlicer":       newOneDFromParams,
	"HealpixSlicer":    newHealpixFromParams,
	"UserPointsSlicer": newUserPointsFromParams,
	"OpsimFieldSlicer": newOpsimFieldFromParams,
}

// New builds a slicer from its registered name and construction parameters.
func New(name string, p params.Params, logger log.Logger) (Slicer, error) {
	build, ok := registry[name]
	if !ok {
		return nil, errs.Configuration("slicer", "unknown slicer %q", name)
	}
	return build(p, logger)
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newUniFromParams(p params.Params, _ log.Logger) (Slicer, error) {
	if err := p.Check("UniSlicer"); err != nil {
		return nil, err
	}
	return NewUniSlicer(), nil
}

func newOneDFromParams(p params.Params, logger log.Logger) (Slicer, error) {
	if err := p.Check("OneDSlicer", "sliceColName", "bins", "nbins", "binsize", "binMin", "binMax"); err != nil {
		return nil, err
	}
	var (
		cfg OneDConfig
		err error
	)
	if cfg.SliceColName, err = p.String("sliceColName", ""); err != nil {
		return nil, err
	}
	if cfg.Bins, err = p.Floats("bins"); err != nil {
		return nil, err
	}
	if cfg.NBins, err = p.Int("nbins", 0); err != nil {
		return nil, err
	}
	if cfg.BinSize, err = p.Float("binsize", 0); err != nil {
		return nil, err
	}
	if cfg.BinMin, err = p.OptionalFloat("binMin"); err != nil {
		return nil, err
	}
	if cfg.BinMax, err = p.OptionalFloat("binMax"); err != nil {
		return nil, err
	}
	return NewOneDSlicer(cfg, logger)
}

func newHealpixFromParams(p params.Params, logger log.Logger) (Slicer, error) {
	if err := p.Check("HealpixSlicer", "nside", "spatialkey1", "spatialkey2", "radius", "useCache"); err != nil {
		return nil, err
	}
	cfg := DefaultHealpixConfig()
	var err error
	if cfg.Nside, err = p.Int("nside", cfg.Nside); err != nil {
		return nil, err
	}
	if cfg.LonCol, err = p.String("spatialkey1", cfg.LonCol); err != nil {
		return nil, err
	}
	if cfg.LatCol, err = p.String("spatialkey2", cfg.LatCol); err != nil {
		return nil, err
	}
	if cfg.Radius, err = p.Float("radius", cfg.Radius); err != nil {
		return nil, err
	}
	if cfg.UseCache, err = p.Bool("useCache", cfg.UseCache); err != nil {
		return nil, err
	}
	return NewHealpixSlicer(cfg, logger)
}

func newUserPointsFromParams(p params.Params, logger log.Logger) (Slicer, error) {
	if err := p.Check("UserPointsSlicer", "ra", "dec", "spatialkey1", "spatialkey2", "radius"); err != nil {
		return nil, err
	}
	var (
		cfg UserPointsConfig
		err error
	)
	if cfg.RA, err = p.Floats("ra"); err != nil {
		return nil, err
	}
	if cfg.Dec, err = p.Floats("dec"); err != nil {
		return nil, err
	}
	if cfg.LonCol, err = p.String("spatialkey1", DefaultLonCol); err != nil {
		return nil, err
	}
	if cfg.LatCol, err = p.String("spatialkey2", DefaultLatCol); err != nil {
		return nil, err
	}
	if cfg.Radius, err = p.Float("radius", DefaultRadius); err != nil {
		return nil, err
	}
	return NewUserPointsSlicer(cfg, logger)
}

func newOpsimFieldFromParams(p params.Params, logger log.Logger) (Slicer, error) {
	if err := p.Check("OpsimFieldSlicer", "simDataFieldIDColName", "fieldRaColName", "fieldDecColName"); err != nil {
		return nil, err
	}
	cfg := DefaultOpsimFieldConfig()
	var err error
	if cfg.FieldIDCol, err = p.String("simDataFieldIDColName", cfg.FieldIDCol); err != nil {
		return nil, err
	}
	if cfg.FieldRACol, err = p.String("fieldRaColName", cfg.FieldRACol); err != nil {
		return nil, err
	}
	if cfg.FieldDecCol, err = p.String("fieldDecColName", cfg.FieldDecCol); err != nil {
		return nil, err
	}
	return NewOpsimFieldSlicer(cfg, logger)
}
