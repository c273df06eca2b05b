package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/dto"
	"github.com/noah-isme/campus-events-api/internal/models"
	appErrors "github.com/noah-isme/campus-events-api/pkg/errors"
	"github.com/noah-isme/campus-events-api/pkg/export"
	"github.com/noah-isme/campus-events-api/pkg/storage"
)

var (
	studentHeaders     = []string{"Name", "Email", "PRN", "Class", "Division", "Role", "Registered Events"}
	participantHeaders = []string{"Name", "Email", "PRN", "Class", "Division", "Registration Date"}
)

type studentSource interface {
	Students(ctx context.Context) ([]models.User, error)
}

type eventSource interface {
	Get(ctx context.Context, id string) (*models.Event, error)
}

type fileStorage interface {
	Save(name string, data []byte) (string, error)
	Read(name string) ([]byte, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	Title     string
}

// ExportService renders student and participant lists and serves stored copies via signed links.
type ExportService struct {
	students  studentSource
	events    eventSource
	storage   fileStorage
	signer    *storage.SignedURLSigner
	renderers map[export.Format]export.Renderer
	cfg       ExportConfig
	logger    *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(students studentSource, events eventSource, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Title == "" {
		cfg.Title = "Campus Events"
	}
	return &ExportService{
		students: students,
		events:   events,
		storage:  files,
		signer:   signer,
		renderers: map[export.Format]export.Renderer{
			export.FormatCSV: export.NewCSVExporter(),
			export.FormatPDF: export.NewPDFExporter(cfg.Title),
		},
		cfg:    cfg,
		logger: logger,
	}
}

// StudentsFile renders every student account.
func (s *ExportService) StudentsFile(ctx context.Context, format string) (*dto.ExportFile, error) {
	f, err := parseFormat(format, "Format must be one of json, csv, pdf")
	if err != nil {
		return nil, err
	}
	students, err := s.students.Students(ctx)
	if err != nil {
		return nil, err
	}
	data := StudentDataset(students)
	data.Title = s.cfg.Title + " - Students List"
	return s.render(f, "students-data", data, "Failed to export users")
}

// ParticipantsFile renders the roster of one event.
func (s *ExportService) ParticipantsFile(ctx context.Context, eventID, format string) (*dto.ExportFile, error) {
	f, err := parseFormat(format, "Format must be one of csv, pdf")
	if err != nil {
		return nil, err
	}
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	data := ParticipantDataset(event)
	data.Title = event.Title + " - Participants"
	return s.render(f, sanitizeFilename(event.Title)+"-participants", data, "Failed to export participants")
}

// Store persists file and returns a signed, expiring download link.
func (s *ExportService) Store(file *dto.ExportFile) (*dto.ExportLink, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrBadRequest, "Export links are not enabled")
	}
	id := uuid.NewString()
	relPath, err := s.storage.Save(path.Join(id, file.Filename), file.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to store export")
	}
	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to sign export")
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	return &dto.ExportLink{
		ID:        id,
		Filename:  file.Filename,
		URL:       fmt.Sprintf("%s/exports/%s", prefix, token),
		ExpiresAt: expiresAt,
	}, nil
}

// Download resolves a signed token to the stored file.
func (s *ExportService) Download(token string) (*dto.ExportFile, error) {
	if s.storage == nil || s.signer == nil {
		return nil, appErrors.ErrExportNotFound
	}
	signed, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.ErrExportExpired
		}
		return nil, appErrors.ErrExportNotFound
	}
	data, err := s.storage.Read(signed.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.ErrExportExpired
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "Failed to read export")
	}
	filename := path.Base(signed.Path)
	f := export.FormatCSV
	if strings.HasSuffix(filename, ".pdf") {
		f = export.FormatPDF
	}
	return &dto.ExportFile{Filename: filename, ContentType: f.ContentType(), Data: data}, nil
}

// Cleanup removes stored exports older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	return s.storage.CleanupOlderThan(ttl)
}

// RunJanitor removes expired exports every interval until ctx is cancelled.
func (s *ExportService) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	if s.storage == nil || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := s.Cleanup(ttl)
			if err != nil {
				s.logger.Warn("export cleanup failed", zap.Error(err))
				continue
			}
			if len(removed) > 0 {
				s.logger.Info("expired exports removed", zap.Int("count", len(removed)))
			}
		}
	}
}

// StudentDataset builds the student export table.
func StudentDataset(students []models.User) export.Dataset {
	rows := make([][]string, 0, len(students))
	for _, st := range students {
		rows = append(rows, []string{
			st.Name,
			st.Email,
			st.PRN,
			st.Class,
			st.Division,
			string(st.Role),
			strconv.Itoa(len(st.RegisteredEvents)),
		})
	}
	return export.Dataset{Headers: studentHeaders, Rows: rows}
}

// ParticipantDataset builds the participant table of an event.
func ParticipantDataset(event *models.Event) export.Dataset {
	rows := make([][]string, 0, len(event.RegisteredStudents))
	for _, reg := range event.RegisteredStudents {
		rows = append(rows, []string{
			reg.Name,
			reg.Email,
			reg.PRN,
			reg.Class,
			reg.Division,
			reg.RegistrationDate.UTC().Format("2006-01-02 15:04"),
		})
	}
	return export.Dataset{Headers: participantHeaders, Rows: rows}
}

func (s *ExportService) render(f export.Format, base string, data export.Dataset, failure string) (*dto.ExportFile, error) {
	payload, err := s.renderers[f].Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, failure)
	}
	return &dto.ExportFile{
		Filename:    fmt.Sprintf("%s.%s", base, f),
		ContentType: f.ContentType(),
		Data:        payload,
	}, nil
}

// parseFormat resolves a file format; invalid is the 400 message for the calling endpoint.
func parseFormat(raw, invalid string) (export.Format, error) {
	f, err := export.ParseFormat(strings.ToLower(strings.TrimSpace(raw)))
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrBadRequest, invalid)
	}
	return f, nil
}

func sanitizeFilename(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('-')
		}
	}
	result := strings.Trim(b.String(), "-")
	if result == "" {
		return "event"
	}
	if len(result) > 60 {
		return result[:60]
	}
	return result
}
