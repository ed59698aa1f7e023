package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/teocruel/internal/core"
	"github.com/RecoveryAshes/teocruel/internal/crawlers"
	"github.com/RecoveryAshes/teocruel/internal/i18n"
	"github.com/RecoveryAshes/teocruel/internal/models"
	"github.com/RecoveryAshes/teocruel/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingStarter 记录启动参数, 不启动进程
type recordingStarter struct {
	calls []core.CrawlArgs
	err   error
}

func (s *recordingStarter) Start(args core.CrawlArgs) error {
	s.calls = append(s.calls, args)
	return s.err
}

type fakeGuard struct{ reason string }

func (g fakeGuard) CheckResourceAvailability() (bool, string) { return g.reason == "", g.reason }

type testEnv struct {
	handler   http.Handler
	store     *store.TaskStore
	starter   *recordingStarter
	outputDir string
}

func newTestEnv(t *testing.T, guard core.ResourceGuard) *testEnv {
	t.Helper()
	dir := t.TempDir()
	taskStore := store.NewTaskStore(filepath.Join(dir, "tasks"))
	outputDir := filepath.Join(dir, "out")
	starter := &recordingStarter{}
	metrics := core.NewMetrics()

	localizer, err := i18n.New([]string{"zh", "en", "ja", "fr", "es"}, "zh")
	require.NoError(t, err)

	h := NewHandler(Options{
		Launcher:         core.NewLauncher(taskStore, starter, guard, metrics, outputDir),
		Status:           core.NewStatusService(taskStore, metrics),
		Localizer:        localizer,
		Metrics:          metrics.Handler(),
		Resources:        crawlers.NewResourceMonitor(crawlers.ResourceMonitorConfig{}),
		DefaultDepth:     1,
		DefaultMaxItems:  100,
		DefaultOutputDir: outputDir,
		Version:          "test",
	})
	return &testEnv{handler: h.Routes(), store: taskStore, starter: starter, outputDir: outputDir}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func postForm(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/run_spider", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return body
}

func TestRunSpider_Form(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(postForm(url.Values{"url": {"example.com"}, "description": {"测试"}}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "success", body["status"])
	assert.Equal(t, "爬虫已开始运行", body["message"])
	taskID, _ := body["task_id"].(string)
	require.NotEmpty(t, taskID)

	task, err := env.store.LoadTask(taskID)
	require.NoError(t, err)
	assert.Equal(t, "http://example.com", task.URL)
	assert.Equal(t, 1, task.Depth)
	assert.Equal(t, 100, task.MaxItems)
	assert.Equal(t, env.outputDir, task.OutputDir)
	assert.Equal(t, "测试", task.Description)

	require.Len(t, env.starter.calls, 1)
	assert.Equal(t, store.ResultsPath(env.outputDir, taskID), env.starter.calls[0].OutputPath)
}

func TestRunSpider_JSON(t *testing.T) {
	env := newTestEnv(t, nil)
	outDir := filepath.Join(t.TempDir(), "custom")

	req := httptest.NewRequest(http.MethodPost, "/run_spider",
		strings.NewReader(`{"url":"https://example.org","depth":0,"max_items":5,"output_dir":"`+filepath.ToSlash(outDir)+`"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	w := env.do(req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	taskID := decode(t, w)["task_id"].(string)
	task, err := env.store.LoadTask(taskID)
	require.NoError(t, err)
	assert.Equal(t, "https://example.org", task.URL)
	assert.Equal(t, 0, task.Depth, "显式传入的0不应被默认值覆盖")
	assert.Equal(t, 5, task.MaxItems)
	assert.DirExists(t, outDir)
}

func TestRunSpider_Errors(t *testing.T) {
	t.Run("URL为空返回400且不写任务文件", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(postForm(url.Values{"url": {""}}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "请提供有效的URL", body["message"])
		assert.Empty(t, env.starter.calls)
		entries, _ := os.ReadDir(env.store.TaskDir())
		assert.Empty(t, entries)
	})

	t.Run("URL格式错误返回具体原因", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(postForm(url.Values{"url": {"http://"}}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		body := decode(t, w)
		assert.Equal(t, "error", body["status"])
		assert.NotEqual(t, "请提供有效的URL", body["message"])
		assert.Contains(t, body["message"], "主机名")
		assert.Empty(t, env.starter.calls)
	})

	t.Run("JSON格式错误", func(t *testing.T) {
		env := newTestEnv(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/run_spider", strings.NewReader(`{"url":`))
		req.Header.Set("Content-Type", "application/json")

		w := env.do(req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "error", decode(t, w)["status"])
	})

	t.Run("无法解析的整数使用默认值", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(postForm(url.Values{"url": {"example.com"}, "depth": {"abc"}}))
		require.Equal(t, http.StatusOK, w.Code)
		require.Len(t, env.starter.calls, 1)
		assert.Equal(t, 1, env.starter.calls[0].Depth)
	})

	t.Run("输出目录创建失败返回500", func(t *testing.T) {
		env := newTestEnv(t, nil)
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

		w := env.do(postForm(url.Values{"url": {"example.com"}, "output_dir": {filepath.Join(blocker, "sub")}}))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "error", decode(t, w)["status"])
	})

	t.Run("资源不足返回503", func(t *testing.T) {
		env := newTestEnv(t, fakeGuard{reason: "内存不足(当前10MB)"})
		w := env.do(postForm(url.Values{"url": {"example.com"}}))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "30", w.Header().Get("Retry-After"))
		assert.Contains(t, decode(t, w)["message"], "内存不足")
	})

	t.Run("进程启动失败返回500", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.starter.err = errors.New("exec format error")
		w := env.do(postForm(url.Values{"url": {"example.com"}}))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("GET不被允许", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(httptest.NewRequest(http.MethodGet, "/run_spider", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}

func TestTaskStatus(t *testing.T) {
	t.Run("任务不存在返回404", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(httptest.NewRequest(http.MethodGet, "/task_status/does-not-exist", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "error", decode(t, w)["status"])
	})

	t.Run("启动后立即查询为processing", func(t *testing.T) {
		env := newTestEnv(t, nil)
		taskID := decode(t, env.do(postForm(url.Values{"url": {"example.com"}})))["task_id"].(string)

		w := env.do(httptest.NewRequest(http.MethodGet, "/task_status/"+taskID, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode(t, w)
		assert.Equal(t, "processing", body["status"])
		assert.Equal(t, "pending", body["state"])
		assert.NotEmpty(t, body["message"])
	})

	t.Run("结果写完后返回completed", func(t *testing.T) {
		env := newTestEnv(t, nil)
		taskID := decode(t, env.do(postForm(url.Values{"url": {"example.com"}})))["task_id"].(string)

		results := `[
{"url":"http://example.com","title":"Home","content":"hello","status":200,"depth":0},
{"url":"http://example.com/a","title":"A","content":"","status":200,"depth":1},
{"url":"http://example.com/b","title":"No title","content":"","status":200,"depth":1}
]`
		require.NoError(t, os.WriteFile(store.ResultsPath(env.outputDir, taskID), []byte(results), 0644))

		w := env.do(httptest.NewRequest(http.MethodGet, "/task_status/"+taskID, nil))
		require.Equal(t, http.StatusOK, w.Code)

		var resp CompletedResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "completed", resp.Status)
		assert.Equal(t, "任务已完成, 共 3 条结果", resp.Message)
		require.Len(t, resp.Results, 3)
		assert.Equal(t, "http://example.com", resp.Results[0].URL)
		assert.Equal(t, "http://example.com/a", resp.Results[1].URL)
		assert.Equal(t, "http://example.com/b", resp.Results[2].URL)
		assert.Equal(t, "hello", resp.Results[0].Content)
	})

	t.Run("空结果返回空数组", func(t *testing.T) {
		env := newTestEnv(t, nil)
		taskID := decode(t, env.do(postForm(url.Values{"url": {"example.com"}})))["task_id"].(string)
		require.NoError(t, os.WriteFile(store.ResultsPath(env.outputDir, taskID), []byte("[]"), 0644))

		w := env.do(httptest.NewRequest(http.MethodGet, "/task_status/"+taskID, nil))
		assert.Contains(t, w.Body.String(), `"results":[]`)
	})

	t.Run("结果未写完为processing", func(t *testing.T) {
		env := newTestEnv(t, nil)
		taskID := decode(t, env.do(postForm(url.Values{"url": {"example.com"}})))["task_id"].(string)
		require.NoError(t, os.WriteFile(store.ResultsPath(env.outputDir, taskID), []byte(`[{"url":`), 0644))

		w := env.do(httptest.NewRequest(http.MethodGet, "/task_status/"+taskID, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "processing", decode(t, w)["status"])
	})

	t.Run("爬虫失败返回500", func(t *testing.T) {
		env := newTestEnv(t, nil)
		taskID := decode(t, env.do(postForm(url.Values{"url": {"example.com"}})))["task_id"].(string)
		require.NoError(t, env.store.SaveState(models.StateRecord{
			TaskID:    taskID,
			State:     models.TaskStateFailed,
			Error:     "连接超时",
			UpdatedAt: time.Now(),
		}))

		w := env.do(httptest.NewRequest(http.MethodGet, "/task_status/"+taskID, nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.Equal(t, "error", body["status"])
		assert.Equal(t, "failed", body["state"])
		assert.Contains(t, body["message"], "连接超时")
	})

	t.Run("结果无法读取返回500", func(t *testing.T) {
		env := newTestEnv(t, nil)
		taskID := decode(t, env.do(postForm(url.Values{"url": {"example.com"}})))["task_id"].(string)
		require.NoError(t, os.Mkdir(store.ResultsPath(env.outputDir, taskID), 0755))

		w := env.do(httptest.NewRequest(http.MethodGet, "/task_status/"+taskID, nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "error", decode(t, w)["status"])
	})
}

func TestSetLanguage(t *testing.T) {
	t.Run("支持的语言写入cookie", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(httptest.NewRequest(http.MethodGet, "/set_language/en", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, LangCookie, cookies[0].Name)
		assert.Equal(t, "en", cookies[0].Value)
	})

	t.Run("不支持的语言被忽略", func(t *testing.T) {
		env := newTestEnv(t, nil)
		w := env.do(httptest.NewRequest(http.MethodGet, "/set_language/de", nil))

		assert.Equal(t, http.StatusFound, w.Code)
		assert.Empty(t, w.Result().Cookies())
	})
}

func TestIndex(t *testing.T) {
	env := newTestEnv(t, nil)

	t.Run("默认中文", func(t *testing.T) {
		w := env.do(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `<html lang="zh">`)
		assert.Contains(t, w.Body.String(), "网页爬虫")
	})

	t.Run("cookie优先于Accept-Language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "ja")
		req.AddCookie(&http.Cookie{Name: LangCookie, Value: "fr"})

		w := env.do(req)
		assert.Contains(t, w.Body.String(), `<html lang="fr">`)
		assert.Equal(t, "fr", w.Header().Get("Content-Language"))
	})

	t.Run("无cookie时使用Accept-Language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")

		w := env.do(req)
		assert.Contains(t, w.Body.String(), "Web Crawler")
	})

	t.Run("无效cookie被忽略", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: LangCookie, Value: "xx"})
		req.Header.Set("Accept-Language", "es")

		w := env.do(req)
		assert.Contains(t, w.Body.String(), `<html lang="es">`)
	})

	t.Run("未知路径返回404", func(t *testing.T) {
		w := env.do(httptest.NewRequest(http.MethodGet, "/nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])

	env.do(postForm(url.Values{"url": {"example.com"}}))
	env.do(postForm(url.Values{"url": {""}}))

	w = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "teocruel_tasks_started_total 1")
	assert.Contains(t, w.Body.String(), `teocruel_task_launch_failures_total{reason="validation"} 1`)
}
