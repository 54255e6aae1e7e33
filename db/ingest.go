package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/NordicHPC/sonar/util/formats/newfmt"
)

// IngestJobsJSON appends a stream of Sonar job envelopes to the store, each envelope bucketed by
// its own attribute time.  Envelopes carrying an error object instead of data are counted and
// dropped, as are envelopes whose time does not parse; neither is worth failing an ingestion
// over.
func IngestJobsJSON(s Store, payload []byte) (appended, dropped int, err error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	for {
		var raw json.RawMessage
		derr := dec.Decode(&raw)
		if derr == io.EOF {
			return
		}
		if derr != nil {
			err = fmt.Errorf("Can't unmarshal slurm job JSON: %v", derr)
			return
		}
		var envelope newfmt.JobsEnvelope
		if uerr := json.Unmarshal(raw, &envelope); uerr != nil || envelope.Data == nil {
			dropped++
			continue
		}
		t, terr := time.Parse(time.RFC3339, string(envelope.Data.Attributes.Time))
		if terr != nil {
			dropped++
			continue
		}
		if aerr := s.AppendJobsJSON(t, raw); aerr != nil {
			err = aerr
			return
		}
		appended++
	}
}
