package results

import (
	"fmt"

	"github.com/lehigh-university-libraries/pairwise/internal/config"
)

// Open builds the writers for every format the study asks for. The returned
// close function releases the SQLite store, if one was opened.
func Open(study *config.Study) (MultiWriter, func() error, error) {
	var writers MultiWriter
	closeFn := func() error { return nil }

	for _, format := range study.Formats {
		switch format {
		case "csv":
			writers = append(writers, NewCSVWriter(study.ResultsDir, study.ResultsName))
		case "parquet":
			writers = append(writers, NewParquetWriter(study.ResultsDir, study.ResultsName))
		case "sqlite":
			store, err := OpenSQLite(study.SQLitePath)
			if err != nil {
				return nil, nil, err
			}
			writers = append(writers, store)
			closeFn = store.Close
		default:
			return nil, nil, fmt.Errorf("unsupported results format: %s", format)
		}
	}

	return writers, closeFn, nil
}
