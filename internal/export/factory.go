package export

import (
	"log"

	"IoMTSpectra/internal/config"
	"IoMTSpectra/internal/model"
)

// NewWriters creates all enabled writers from the configuration. Writers
// that fail to initialize (for example an unreachable ClickHouse) are
// skipped with a warning so one bad sink never takes the run down.
func NewWriters(cfg *config.Config) []model.Writer {
	writers := make([]model.Writer, 0, len(cfg.Writers))

	for _, def := range cfg.Writers {
		if !def.Enabled {
			continue
		}

		switch def.Type {
		case "csv":
			writers = append(writers, NewCSVWriter(def.CSV.Path))
		case "report":
			writers = append(writers, NewReportWriter(def.Report.Path))
		case "json":
			writers = append(writers, NewJSONWriter(def.JSON.RootPath))
		case "clickhouse":
			w, err := NewClickHouseWriter(def.ClickHouse)
			if err != nil {
				log.Printf("Warning: failed to create writer type '%s': %v, skipping.", def.Type, err)
				continue
			}
			writers = append(writers, w)
		default:
			log.Printf("Warning: unknown writer type '%s' in config, skipping.", def.Type)
		}
	}

	return writers
}
