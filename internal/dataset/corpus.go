package dataset

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"letterforge/internal/bitmap"
)

// ErrBadLabel marks a record whose trailing label token names no known class.
var ErrBadLabel = errors.New("dataset: bad label")

// maxRecordBytes caps a single record. Longer lines are skipped.
var maxRecordBytes = 4 << 20

// Sample is a normalized bitmap paired with its class index.
type Sample struct {
	Line   int
	Bitmap *bitmap.Bitmap
	Label  int
}

// Unlabeled is a normalized bitmap and the line it was read from.
type Unlabeled struct {
	Line   int
	Bitmap *bitmap.Bitmap
}

// Inputs returns the flattened bitmap.
func (s Sample) Inputs() []float64 {
	return s.Bitmap.Floats()
}

// LoadStats summarises a corpus read.
type LoadStats struct {
	Lines   int
	Loaded  int
	Skipped int
}

func (s *LoadStats) add(o LoadStats) {
	s.Lines += o.Lines
	s.Loaded += o.Loaded
	s.Skipped += o.Skipped
}

// Letters returns the class names "A" through "Z".
func Letters() []string {
	out := make([]string, 0, 26)
	for c := 'A'; c <= 'Z'; c++ {
		out = append(out, string(c))
	}
	return out
}

// ResolveLabel maps a label token to a class index. The token may be a class
// name (case-insensitive) or a decimal index.
func ResolveLabel(tok string, labels []string) (int, error) {
	for i, l := range labels {
		if strings.EqualFold(tok, l) {
			return i, nil
		}
	}
	idx, err := strconv.Atoi(tok)
	if err != nil || idx < 0 || idx >= len(labels) {
		return 0, errors.Wrapf(ErrBadLabel, "%q", tok)
	}
	return idx, nil
}

// ParseSample decodes "rows cols v... label" and normalizes the bitmap.
func ParseSample(line string, labels []string) (*bitmap.Bitmap, int, error) {
	b, rest, err := bitmap.FromTokens(bitmap.Tokenize(line))
	if err != nil {
		return nil, 0, err
	}
	if len(rest) == 0 {
		return nil, 0, errors.Wrap(ErrBadLabel, "missing label")
	}
	label, err := ResolveLabel(rest[0], labels)
	if err != nil {
		return nil, 0, err
	}
	if err := b.Normalize(); err != nil {
		return nil, 0, err
	}
	return b, label, nil
}

// readRecord returns the next line without its terminator. A line longer
// than maxRecordBytes is drained and reported as tooLong.
func readRecord(br *bufio.Reader) (line string, tooLong bool, err error) {
	var buf []byte
	read := false
	for {
		chunk, isPrefix, err := br.ReadLine()
		if err != nil {
			if err == io.EOF && read {
				break
			}
			return "", false, err
		}
		read = true
		if !tooLong {
			if len(buf)+len(chunk) > maxRecordBytes {
				tooLong = true
				buf = nil
			} else {
				buf = append(buf, chunk...)
			}
		}
		if !isPrefix {
			break
		}
	}
	return string(buf), tooLong, nil
}

func scanRecords(r io.Reader, fn func(lineNo int, line string) bool) (LoadStats, error) {
	var stats LoadStats
	br := bufio.NewReaderSize(r, 64*1024)
	for {
		raw, tooLong, err := readRecord(br)
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			return stats, errors.Wrap(err, "read corpus")
		}
		stats.Lines++
		if tooLong {
			stats.Skipped++
			continue
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if fn(stats.Lines, line) {
			stats.Loaded++
		} else {
			stats.Skipped++
		}
	}
}

// Load reads labeled records, one per line. Records that fail to parse, carry
// an unknown label or have no mass are skipped and counted.
func Load(r io.Reader, labels []string) ([]Sample, LoadStats, error) {
	var samples []Sample
	stats, err := scanRecords(r, func(lineNo int, line string) bool {
		b, label, err := ParseSample(line, labels)
		if err != nil {
			return false
		}
		samples = append(samples, Sample{Line: lineNo, Bitmap: b, Label: label})
		return true
	})
	return samples, stats, err
}

// LoadUnlabeled reads bare bitmap records and normalizes each one. Trailing
// tokens are ignored. Each result keeps its source line.
func LoadUnlabeled(r io.Reader) ([]Unlabeled, LoadStats, error) {
	var maps []Unlabeled
	stats, err := scanRecords(r, func(lineNo int, line string) bool {
		b, err := bitmap.Parse(line)
		if err != nil {
			return false
		}
		if err := b.Normalize(); err != nil {
			return false
		}
		maps = append(maps, Unlabeled{Line: lineNo, Bitmap: b})
		return true
	})
	return maps, stats, err
}

// LoadFile loads labeled samples from a file, or from every corpus file under
// a directory in sorted order.
func LoadFile(path string, labels []string) ([]Sample, LoadStats, error) {
	files, err := corpusFiles(path)
	if err != nil {
		return nil, LoadStats{}, err
	}
	var (
		all   []Sample
		total LoadStats
	)
	for _, name := range files {
		f, err := os.Open(name)
		if err != nil {
			return nil, total, errors.Wrap(err, "open corpus")
		}
		samples, stats, err := Load(f, labels)
		f.Close()
		if err != nil {
			return nil, total, errors.Wrapf(err, "load %s", name)
		}
		all = append(all, samples...)
		total.add(stats)
	}
	return all, total, nil
}

// LoadUnlabeledFile loads bare bitmaps from a file.
func LoadUnlabeledFile(path string) ([]Unlabeled, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, errors.Wrap(err, "open bitmaps")
	}
	defer f.Close()
	maps, stats, err := LoadUnlabeled(f)
	if err != nil {
		return nil, stats, errors.Wrapf(err, "load %s", path)
	}
	return maps, stats, nil
}

func corpusFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrap(err, "stat corpus")
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	files, err := DiscoverCorpora(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, errors.Errorf("no corpus files under %s", path)
	}
	return files, nil
}
