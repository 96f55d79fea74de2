package backup

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	appcfg "github.com/storyseed/core/internal/config"
	"github.com/storyseed/core/internal/pkg/response"
)

const defaultS3PathTemplate = "backups/{Y}/{m}/{filename}"

// tableNames lists all tables included in backups, in restore order.
var tableNames = []string{
	"users", "books", "story_elements", "prompts", "responses",
	"daily_prompt_preferences", "daily_prompts_sent",
}

// Service creates and restores ZIP backups of the whole database.
type Service struct {
	db     *gorm.DB
	cfg    *appcfg.AppConfig
	logger *zap.Logger
}

func NewService(db *gorm.DB, cfg *appcfg.AppConfig, logger *zap.Logger) *Service {
	return &Service{db: db, cfg: cfg, logger: logger}
}

func (s *Service) dir() string {
	if s.cfg.Paths.Backups != "" {
		return s.cfg.Paths.Backups
	}
	return "./backups"
}

type backupItem struct {
	Filename string `json:"filename"`
	Size     string `json:"size"`
}

func (s *Service) list() []backupItem {
	dir := s.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var items []backupItem
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".zip") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		items = append(items, backupItem{
			Filename: e.Name(),
			Size:     formatSize(info.Size()),
		})
	}
	if items == nil {
		items = []backupItem{}
	}
	return items
}

func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.2f MB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.2f KB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}

// createZip exports every table as JSON into a ZIP archive.
func (s *Service) createZip() (*bytes.Buffer, error) {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)

	for _, table := range tableNames {
		var rows []map[string]interface{}
		if err := s.db.Table(table).Find(&rows).Error; err != nil {
			continue
		}
		data, err := json.Marshal(rows)
		if err != nil {
			continue
		}
		f, err := w.Create(table + ".json")
		if err != nil {
			continue
		}
		f.Write(data)
	}

	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf, nil
}

type artifact struct {
	Filename string
	Path     string
	Buffer   *bytes.Buffer
}

func (s *Service) createLocal(now time.Time) (*artifact, error) {
	buf, err := s.createZip()
	if err != nil {
		return nil, err
	}
	dir := s.dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("backup-%s.zip", now.Format("2006-01-02T15-04-05"))
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return nil, err
	}
	return &artifact{Filename: filename, Path: path, Buffer: buf}, nil
}

func (s *Service) restoreZip(zr *zip.Reader) error {
	for _, f := range zr.File {
		if !strings.HasSuffix(f.Name, ".json") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		data, _ := io.ReadAll(rc)
		rc.Close()

		name := strings.TrimSuffix(f.Name, ".json")
		if idx := strings.LastIndex(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}

		var rows []map[string]interface{}
		if err := json.Unmarshal(data, &rows); err != nil || len(rows) == 0 {
			continue
		}

		allowed := false
		for _, t := range tableNames {
			if name == t {
				allowed = true
				break
			}
		}
		if !allowed {
			continue
		}

		s.db.Exec("DELETE FROM " + name)
		for _, row := range rows {
			s.db.Table(name).Create(row)
		}
	}
	return nil
}

// s3Enabled reports whether an S3 target is configured.
func (s *Service) s3Enabled() bool {
	return s.cfg.S3.Bucket != "" && s.cfg.S3.AccessKeyID != ""
}

func (s *Service) uploadToS3(ctx context.Context, art *artifact, now time.Time) error {
	uploader, err := newS3Uploader(s.cfg.S3)
	if err != nil {
		return err
	}
	key := renderObjectKey(s.cfg.S3.PathTemplate, art.Filename, now)
	_, err = uploader.Upload(ctx, key, art.Buffer.Bytes(), "application/zip")
	return err
}

// AutoBackup is the scheduled entry point: create a local backup and, when
// configured, ship it to S3.
func (s *Service) AutoBackup(ctx context.Context) error {
	now := time.Now()
	art, err := s.createLocal(now)
	if err != nil {
		return err
	}
	s.logger.Info("backup created", zap.String("file", art.Filename))

	if s.s3Enabled() {
		if err := s.uploadToS3(ctx, art, now); err != nil {
			return fmt.Errorf("s3 upload: %w", err)
		}
		s.logger.Info("backup uploaded to s3", zap.String("file", art.Filename))
	}
	return nil
}

func renderObjectKey(template, filename string, now time.Time) string {
	tpl := strings.TrimSpace(template)
	if tpl == "" {
		tpl = defaultS3PathTemplate
	}

	replacer := strings.NewReplacer(
		"{Y}", now.Format("2006"),
		"{m}", now.Format("01"),
		"{d}", now.Format("02"),
		"{H}", now.Format("15"),
		"{M}", now.Format("04"),
		"{s}", now.Format("05"),
		"{filename}", filename,
	)

	key := replacer.Replace(tpl)
	key = strings.ReplaceAll(key, "\\", "/")
	key = strings.TrimSpace(strings.TrimPrefix(key, "/"))
	for strings.Contains(key, "//") {
		key = strings.ReplaceAll(key, "//", "/")
	}
	if key == "" {
		return filename
	}
	return key
}

// Handler exposes backup management endpoints.
type Handler struct{ svc *Service }

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	g := rg.Group("/backups", authMW)

	g.GET("", h.list)
	g.GET("/new", h.createAndDownload)
	g.GET("/:filename", h.download)
	g.POST("/rollback", h.uploadAndRestore)
	g.POST("/upload-to-s3", h.uploadToS3)
	g.PATCH("/rollback/:filename", h.rollback)
	g.DELETE("/:filename", h.deleteOne)
}

func (h *Handler) list(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.svc.list()})
}

func (h *Handler) createAndDownload(c *gin.Context) {
	art, err := h.svc.createLocal(time.Now())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, art.Filename))
	c.Data(http.StatusOK, "application/zip", art.Buffer.Bytes())
}

func (h *Handler) download(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	if !strings.HasSuffix(filename, ".zip") {
		response.BadRequest(c, "invalid filename")
		return
	}
	data, err := os.ReadFile(filepath.Join(h.svc.dir(), filename))
	if err != nil {
		if os.IsNotExist(err) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/zip", data)
}

func (h *Handler) uploadAndRestore(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file")
		return
	}

	src, err := file.Open()
	if err != nil {
		response.InternalError(c, err)
		return
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		response.InternalError(c, err)
		return
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		response.BadRequest(c, "invalid zip file")
		return
	}

	if err := h.svc.restoreZip(zr); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "restore successful"})
}

func (h *Handler) rollback(c *gin.Context) {
	filename := filepath.Base(c.Param("filename"))
	data, err := os.ReadFile(filepath.Join(h.svc.dir(), filename))
	if err != nil {
		if os.IsNotExist(err) {
			response.NotFound(c)
			return
		}
		response.InternalError(c, err)
		return
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		response.BadRequest(c, "invalid zip file")
		return
	}

	if err := h.svc.restoreZip(zr); err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"message": "rollback successful"})
}

func (h *Handler) uploadToS3(c *gin.Context) {
	if !h.svc.s3Enabled() {
		response.NoContent(c)
		return
	}

	now := time.Now()
	art, err := h.svc.createLocal(now)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	if err := h.svc.uploadToS3(c.Request.Context(), art, now); err != nil {
		response.InternalError(c, err)
		return
	}
	response.NoContent(c)
}

func (h *Handler) deleteOne(c *gin.Context) {
	filename := strings.TrimSpace(filepath.Base(c.Param("filename")))
	if filename == "" || !strings.HasSuffix(filename, ".zip") {
		response.BadRequest(c, "invalid filename")
		return
	}
	_ = os.Remove(filepath.Join(h.svc.dir(), filename))
	response.NoContent(c)
}
