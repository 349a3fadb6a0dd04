package telemetry

import (
	"github.com/charmbracelet/log"
)

// LogReporter prints every result through a structured logger.
type LogReporter struct {
	logger *log.Logger
}

// NewLogReporter builds a console reporter. A nil logger falls back to the
// package default.
func NewLogReporter(logger *log.Logger) LogReporter {
	if logger == nil {
		logger = log.Default()
	}
	return LogReporter{logger: logger}
}

func (r LogReporter) Report(res Result) {
	switch res.Kind {
	case KindRadar:
		ranges := make([]float64, 0, len(res.Detections))
		for _, d := range res.Detections {
			ranges = append(ranges, d.RangeMeters)
		}
		r.logger.Info("radar detection",
			"targets", len(res.Detections),
			"ranges_m", ranges,
			"beam_deg", res.BeamAngle)
	case KindComm:
		if res.Bit != nil {
			r.logger.Info("decoded bit",
				"bit", res.Bit.Bit,
				"mean_phase_step", res.Bit.MeanPhaseStep,
				"beam_deg", res.BeamAngle)
		}
	default:
		r.logger.Debug("telemetry result", "kind", res.Kind)
	}
}
