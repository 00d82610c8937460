package strategy

import (
	"fmt"

	"TradeSuite/internal/domain/models"
	domsvc "TradeSuite/internal/domain/service"
	"TradeSuite/internal/services/signals"
	"TradeSuite/pkg/config"
	xhttp "TradeSuite/pkg/http"
)

// NewSources builds the configured sources in order. HTTP sources share httpOpts.
func NewSources(cfgs []config.SourceConfig, httpOpts ...xhttp.ClientOption) ([]domsvc.SignalSource, error) {
	out := make([]domsvc.SignalSource, 0, len(cfgs))
	for _, sc := range cfgs {
		src, err := newSource(sc, httpOpts)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func newSource(sc config.SourceConfig, httpOpts []xhttp.ClientOption) (domsvc.SignalSource, error) {
	p := Params(sc.Params)
	switch sc.Type {
	case config.SourceHTTP:
		if sc.URL == "" {
			return nil, fmt.Errorf("%w: source %q has no url", models.ErrConfiguration, sc.ID)
		}
		return signals.NewHTTPSource(sc.ID, sc.URL, sc.Timeout, httpOpts...), nil
	case config.SourceDonchian:
		return NewDonchian(sc.ID, p), nil
	case config.SourceSMATrend:
		return NewSMATrend(sc.ID, p), nil
	case config.SourceRSIMeanRev:
		return NewRSIMeanReversion(sc.ID, p), nil
	default:
		return nil, fmt.Errorf("%w: source %q has unknown type %q", models.ErrConfiguration, sc.ID, sc.Type)
	}
}
