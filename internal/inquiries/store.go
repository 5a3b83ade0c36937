package inquiries

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"tourbooking/internal/models"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// NewID returns an id of the form inq_<unix millis>_<9 lowercase alphanumerics>.
func NewID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("inq_%d_%s", now.UnixMilli(), suffix)
}

// FileStore keeps one JSON document per inquiry in a directory.
type FileStore struct {
	dir    string
	logger *zerolog.Logger
	now    func() time.Time
}

func NewFileStore(dir string, logger *zerolog.Logger) *FileStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &FileStore{dir: dir, logger: logger, now: time.Now}
}

func (s *FileStore) Dir() string {
	return s.dir
}

// FileName builds inquiry_<First_Last>_<YYYY-MM-DD>_<id>.json. The id keeps
// same-day submissions from the same name apart.
func FileName(inq *models.InquiryRecord, day time.Time) string {
	name := unsafeNameChars.ReplaceAllString(inq.Customer.FirstName+"_"+inq.Customer.LastName, "_")
	return fmt.Sprintf("inquiry_%s_%s_%s.json", name, day.UTC().Format("2006-01-02"), inq.ID)
}

// Save writes the record atomically and returns the file path.
func (s *FileStore) Save(ctx context.Context, inq *models.InquiryRecord) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if inq.ID == "" {
		return "", errors.New("inquiry id is required")
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create inquiries dir: %w", err)
	}

	data, err := json.MarshalIndent(inq, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal inquiry: %w", err)
	}

	path := filepath.Join(s.dir, FileName(inq, s.now()))
	tmp, err := os.CreateTemp(s.dir, ".inquiry-*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write inquiry: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close inquiry file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return "", fmt.Errorf("rename inquiry file: %w", err)
	}
	return path, nil
}

// List returns all stored inquiries, newest submission first. Records with an
// unparseable submittedAt sort last. A missing directory yields an empty list.
func (s *FileStore) List(ctx context.Context) ([]models.InquiryRecord, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []models.InquiryRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read inquiries dir: %w", err)
	}

	records := make([]models.InquiryRecord, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		var rec models.InquiryRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			s.logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable inquiry file")
			continue
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		ti, okI := submittedAt(records[i])
		tj, okJ := submittedAt(records[j])
		switch {
		case okI && okJ:
			return ti.After(tj)
		default:
			return okI && !okJ
		}
	})
	return records, nil
}

func submittedAt(rec models.InquiryRecord) (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, rec.Inquiry.SubmittedAt)
	return t, err == nil
}
