package api

import (
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/RecoveryAshes/teocruel/internal/core"
	"github.com/RecoveryAshes/teocruel/internal/crawlers"
	"github.com/RecoveryAshes/teocruel/internal/i18n"
	"github.com/RecoveryAshes/teocruel/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/text/message"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// maxBodySize 请求体上限
const maxBodySize = 1 << 20

// TaskLauncher 启动爬取任务, 由 core.Launcher 实现
type TaskLauncher interface {
	Launch(req core.LaunchRequest) (*models.Task, error)
}

// StatusQuerier 查询任务状态, 由 core.StatusService 实现
type StatusQuerier interface {
	Query(taskID string) (models.TaskStatus, error)
}

// ResourceReporter 提供资源快照, 由 crawlers.ResourceMonitor 实现
type ResourceReporter interface {
	Snapshot() crawlers.ResourceSnapshot
}

// Options Handler依赖和默认值
type Options struct {
	Launcher  TaskLauncher
	Status    StatusQuerier
	Localizer *i18n.Localizer
	Metrics   http.Handler     // 为nil时不注册 /metrics
	Resources ResourceReporter // 可以为nil

	DefaultDepth     int
	DefaultMaxItems  int
	DefaultOutputDir string
	Version          string
}

// Handler HTTP处理器
type Handler struct {
	opts Options
}

// NewHandler 创建HTTP处理器
func NewHandler(opts Options) *Handler {
	return &Handler{opts: opts}
}

// Routes 注册全部路由并套上中间件
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /run_spider", h.RunSpider)
	mux.HandleFunc("GET /task_status/{task_id}", h.TaskStatus)
	mux.HandleFunc("GET /set_language/{lang}", h.SetLanguage)
	mux.HandleFunc("GET /health", h.Health)
	if h.opts.Metrics != nil {
		mux.Handle("GET /metrics", h.opts.Metrics)
	}

	var handler http.Handler = mux
	handler = LocaleMiddleware(h.opts.Localizer)(handler)
	handler = RecoveryMiddleware(handler)
	handler = LoggingMiddleware(handler)
	handler = RequestIDMiddleware(handler)
	return handler
}

// langOption 语言菜单项
type langOption struct {
	Code     string
	Name     string
	Selected bool
}

// indexPage 首页模板数据
type indexPage struct {
	Lang             string
	Languages        []langOption
	DefaultDepth     int
	DefaultMaxItems  int
	DefaultOutputDir string

	printer *message.Printer
}

// T 在模板中翻译key
func (p indexPage) T(key string) string {
	return p.printer.Sprintf(key)
}

// Index 首页
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	lang := i18n.FromContext(r.Context())

	page := indexPage{
		Lang:             lang,
		DefaultDepth:     h.opts.DefaultDepth,
		DefaultMaxItems:  h.opts.DefaultMaxItems,
		DefaultOutputDir: h.opts.DefaultOutputDir,
		printer:          h.opts.Localizer.Printer(lang),
	}
	for _, code := range h.opts.Localizer.Supported() {
		page.Languages = append(page.Languages, langOption{
			Code:     code,
			Name:     i18n.LanguageNames[code],
			Selected: code == lang,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		log.Error().Err(err).Str("request_id", GetRequestID(r)).Msg("渲染首页失败")
	}
}

// runSpiderBody JSON请求体, 缺省字段使用默认值
type runSpiderBody struct {
	URL         string `json:"url"`
	Depth       *int   `json:"depth"`
	MaxItems    *int   `json:"max_items"`
	Description string `json:"description"`
	OutputDir   string `json:"output_dir"`
}

// RunSpider 启动爬取任务, 接受表单或JSON
func (h *Handler) RunSpider(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseLaunchRequest(w, r)
	if err != nil {
		h.writeLaunchError(w, r, err)
		return
	}

	log.Info().
		Str("request_id", GetRequestID(r)).
		Str("url", req.URL).
		Int("depth", req.Depth).
		Int("max_items", req.MaxItems).
		Msg("收到爬取请求")

	task, err := h.opts.Launcher.Launch(req)
	if err != nil {
		h.writeLaunchError(w, r, err)
		return
	}

	WriteJSON(w, r, RunSpiderResponse{
		Status:  "success",
		TaskID:  task.TaskID,
		Message: translate(r, i18n.MsgTaskStarted),
	}, http.StatusOK)
}

func (h *Handler) parseLaunchRequest(w http.ResponseWriter, r *http.Request) (core.LaunchRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	req := core.LaunchRequest{
		Depth:    h.opts.DefaultDepth,
		MaxItems: h.opts.DefaultMaxItems,
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/json":
		var body runSpiderBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			return req, &models.ValidationError{Field: "body", Reason: "JSON格式错误"}
		}
		req.URL = body.URL
		req.Description = body.Description
		req.OutputDir = body.OutputDir
		if body.Depth != nil {
			req.Depth = *body.Depth
		}
		if body.MaxItems != nil {
			req.MaxItems = *body.MaxItems
		}
		return req, nil

	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodySize); err != nil {
			return req, &models.ValidationError{Field: "body", Reason: "表单格式错误"}
		}

	default:
		if err := r.ParseForm(); err != nil {
			return req, &models.ValidationError{Field: "body", Reason: "表单格式错误"}
		}
	}

	req.URL = r.PostFormValue("url")
	req.Description = r.PostFormValue("description")
	req.OutputDir = r.PostFormValue("output_dir")
	req.Depth = formInt(r, "depth", req.Depth)
	req.MaxItems = formInt(r, "max_items", req.MaxItems)
	return req, nil
}

// formInt 读取整数表单字段, 缺失或无法解析时使用默认值
func formInt(r *http.Request, name string, def int) int {
	raw := strings.TrimSpace(r.PostFormValue(name))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Debug().Str("field", name).Str("value", raw).Msg("整数参数无法解析, 使用默认值")
		return def
	}
	return n
}

func (h *Handler) writeLaunchError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *models.ValidationError
		resourceErr   *models.ResourceError
		ioErr         *models.IOError
	)

	switch {
	case errors.As(err, &validationErr):
		log.Warn().Err(err).Str("request_id", GetRequestID(r)).Msg("启动请求验证失败")
		if errors.Is(err, models.ErrURLRequired) {
			writeError(w, r, http.StatusBadRequest, i18n.MsgURLRequired)
			return
		}
		writeError(w, r, http.StatusBadRequest, i18n.MsgInvalidInput, validationErr.Reason)

	case errors.As(err, &resourceErr):
		log.Warn().Err(err).Str("request_id", GetRequestID(r)).Msg("资源不足, 拒绝启动任务")
		w.Header().Set("Retry-After", "30")
		writeError(w, r, http.StatusServiceUnavailable, i18n.MsgResourceBusy, resourceErr.Reason)

	case errors.As(err, &ioErr):
		log.Error().Err(err).Str("request_id", GetRequestID(r)).Msg("启动任务时文件操作失败")
		writeError(w, r, http.StatusInternalServerError, i18n.MsgStorageError, ioErr.Err.Error())

	default:
		log.Error().Err(err).Str("request_id", GetRequestID(r)).Msg("启动任务失败")
		writeError(w, r, http.StatusInternalServerError, i18n.MsgLaunchFailed, err.Error())
	}
}

// TaskStatus 查询任务状态
func (h *Handler) TaskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := r.PathValue("task_id")

	status, err := h.opts.Status.Query(taskID)
	if err != nil {
		if errors.Is(err, models.ErrTaskNotFound) {
			writeError(w, r, http.StatusNotFound, i18n.MsgTaskNotFound)
			return
		}
		log.Error().Err(err).Str("request_id", GetRequestID(r)).Str("task_id", taskID).Msg("读取任务结果失败")
		writeError(w, r, http.StatusInternalServerError, i18n.MsgReadResults)
		return
	}

	switch status.Kind {
	case models.StatusCompleted:
		results := status.Results
		if results == nil {
			results = []models.CrawlRecord{}
		}
		WriteJSON(w, r, CompletedResponse{
			Status:  string(models.StatusCompleted),
			Message: translate(r, i18n.MsgTaskCompleted, len(results)),
			Results: results,
			State:   string(status.State),
			Stats:   status.Stats,
		}, http.StatusOK)

	case models.StatusProcessing:
		WriteJSON(w, r, ProcessingResponse{
			Status:  string(models.StatusProcessing),
			Message: translate(r, i18n.MsgTaskProcessing),
			State:   string(status.State),
		}, http.StatusOK)

	default:
		WriteJSON(w, r, ErrorResponse{
			Status:    string(models.StatusError),
			Message:   translate(r, i18n.MsgTaskFailed, status.Error),
			State:     string(status.State),
			RequestID: GetRequestID(r),
		}, http.StatusInternalServerError)
	}
}

// SetLanguage 切换界面语言并返回首页
// 不支持的语言只记录日志
func (h *Handler) SetLanguage(w http.ResponseWriter, r *http.Request) {
	lang := r.PathValue("lang")

	if h.opts.Localizer.IsSupported(lang) {
		http.SetCookie(w, &http.Cookie{
			Name:     LangCookie,
			Value:    lang,
			Path:     "/",
			MaxAge:   int((365 * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		log.Info().Str("request_id", GetRequestID(r)).Str("lang", lang).Msg("界面语言已切换")
	} else {
		log.Warn().Str("request_id", GetRequestID(r)).Str("lang", lang).Msg("尝试设置不支持的语言")
	}

	http.Redirect(w, r, "/", http.StatusFound)
}

// Health 健康检查
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Version: h.opts.Version}
	if h.opts.Resources != nil {
		resp.Resources = h.opts.Resources.Snapshot()
	}
	WriteJSON(w, r, resp, http.StatusOK)
}
