package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/openrcv/tabulator/internal/cvr"
)

// overvoteDelimiter separates multiple candidate names packed into a
// single CSV cell, the way a vendor export marks an overvoted rank.
const overvoteDelimiter = "|"

// jsonBallot is one record of a JSON CVR fixture: a rank-to-candidates
// map keyed by the rank number as a string, since JSON object keys are
// always strings.
type jsonBallot struct {
	ID       string              `json:"id"`
	Precinct string              `json:"precinct,omitempty"`
	Rankings map[string][]string `json:"rankings"`
}

// loadCVRFixture reads a local CVR fixture for exercising the engine
// outside a real vendor export. JSON and CSV are both accepted,
// selected by file extension; this is a CLI-only convenience, not a
// substitute for a vendor-format reader.
func loadCVRFixture(path string, scale int) ([]*cvr.CVR, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return loadJSONFixture(path, scale)
	case ".csv":
		return loadCSVFixture(path, scale)
	default:
		return nil, fmt.Errorf("unrecognized CVR fixture extension %q (want .json or .csv)", ext)
	}
}

func loadJSONFixture(path string, scale int) ([]*cvr.CVR, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var ballots []jsonBallot
	if err := json.NewDecoder(f).Decode(&ballots); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	out := make([]*cvr.CVR, 0, len(ballots))
	for i, b := range ballots {
		ranking := cvr.Ranking{}
		for rankStr, names := range b.Rankings {
			rank, err := strconv.Atoi(rankStr)
			if err != nil {
				return nil, fmt.Errorf("%s: ballot %q: rank %q is not an integer", path, b.ID, rankStr)
			}
			set := make(map[cvr.CandidateID]struct{}, len(names))
			for _, n := range names {
				set[cvr.CandidateID(n)] = struct{}{}
			}
			ranking[rank] = set
		}

		id := b.ID
		if id == "" {
			id = strconv.Itoa(i + 1)
		}
		out = append(out, cvr.New(path, id, nil, ranking, b.Precinct, scale))
	}
	return out, nil
}

// loadCSVFixture reads a CSV fixture laid out as one row per ballot:
// "id,precinct,rank1,rank2,...". A blank cell skips that rank; a cell
// holding overvoteDelimiter-separated names marks an overvote. The
// header row's rank columns are ignored beyond establishing how many
// there are.
func loadCSVFixture(path string, scale int) ([]*cvr.CVR, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if len(header) < 3 {
		return nil, fmt.Errorf("%s: header must have id,precinct,rank1,... columns", path)
	}

	var out []*cvr.CVR
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		ranking := cvr.Ranking{}
		for col := 2; col < len(row); col++ {
			cell := strings.TrimSpace(row[col])
			if cell == "" {
				continue
			}
			rank := col - 1
			names := strings.Split(cell, overvoteDelimiter)
			set := make(map[cvr.CandidateID]struct{}, len(names))
			for _, n := range names {
				set[cvr.CandidateID(strings.TrimSpace(n))] = struct{}{}
			}
			ranking[rank] = set
		}

		out = append(out, cvr.New(path, row[0], nil, ranking, row[1], scale))
	}
	return out, nil
}
