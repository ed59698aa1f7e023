package crawlers

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/teocruel/internal/models"
	"github.com/RecoveryAshes/teocruel/internal/utils"
	"github.com/gocolly/colly/v2"
)

// 请求上下文中的键
const (
	depthKey     = "depth"     // 发现深度
	requestedKey = "requested" // 入队时的URL, 重定向后用于比对
	sourceKey    = "source"    // 发现该链接的页面
)

// maxRedirects 单个请求最多跟随的重定向次数
const maxRedirects = 10

// ErrStopCrawl emit返回此错误时结束遍历且不视为失败
var ErrStopCrawl = errors.New("停止爬取")

// Config 页面爬取配置
type Config struct {
	Depth              int           // 最大链接跳数, 0表示只抓取种子
	MaxItems           int           // 最多产出的记录数
	RequestTimeout     time.Duration // 单个请求超时
	InsecureSkipVerify bool          // 跳过TLS证书验证
}

// Stats 单次爬取统计, 由Runner写入状态文件
type Stats = models.CrawlStats

// PageCrawler 同域名、限深度、限数量的页面爬取器(使用Colly)
type PageCrawler struct {
	config         Config
	headerProvider models.HeaderProvider
}

// NewPageCrawler 创建页面爬取器, headerProvider可以为nil
func NewPageCrawler(config Config, headerProvider models.HeaderProvider) *PageCrawler {
	if config.RequestTimeout <= 0 {
		config.RequestTimeout = 30 * time.Second
	}
	return &PageCrawler{
		config:         config,
		headerProvider: headerProvider,
	}
}

// crawlRun 一次遍历的状态, 每次Crawl重新创建
type crawlRun struct {
	ctx      context.Context
	config   Config
	domain   string
	headers  http.Header
	emit     func(models.CrawlRecord) error
	visited  *VisitedSet
	frontier []models.URLItem
	stats    Stats
	stopped  bool
	emitErr  error
}

// Crawl 从种子URL开始广度优先遍历, 每访问一个页面调用一次emit
//
// 每次调用都从头遍历,不保存任何续爬状态。种子URL抓取失败时返回错误;
// 其它页面的失败只记录日志。emit返回错误时立即停止, ErrStopCrawl以外的错误会被返回。
func (pc *PageCrawler) Crawl(ctx context.Context, seedURL string, emit func(models.CrawlRecord) error) (Stats, error) {
	startTime := time.Now()

	if err := models.ValidateURL(seedURL); err != nil {
		return Stats{}, fmt.Errorf("种子URL无效: %w", err)
	}
	seed, _ := url.Parse(seedURL)
	if seed.Path == "" {
		seed.Path = "/"
	}
	seedURL = seed.String()

	var headers http.Header
	if pc.headerProvider != nil {
		h, err := pc.headerProvider.GetHeaders()
		if err != nil {
			return Stats{}, fmt.Errorf("获取HTTP头部失败: %w", err)
		}
		headers = h
	}

	run := &crawlRun{
		ctx:     ctx,
		config:  pc.config,
		domain:  seed.Host,
		headers: headers,
		emit:    emit,
		visited: NewVisitedSet(),
	}

	utils.Infof("🔍 开始爬取: %s (深度=%d, 最大记录数=%d)", seedURL, pc.config.Depth, pc.config.MaxItems)

	if pc.config.MaxItems <= 0 {
		utils.Infof("最大记录数为 %d, 不抓取任何页面", pc.config.MaxItems)
		return run.stats, nil
	}

	collector := run.newCollector()

	run.visited.MarkVisited(seedURL)
	run.frontier = append(run.frontier, models.URLItem{URL: seedURL, Depth: 0})

	for len(run.frontier) > 0 && !run.stopped {
		if err := ctx.Err(); err != nil {
			run.stats.Duration = time.Since(startTime).Seconds()
			return run.stats, err
		}

		item := run.frontier[0]
		run.frontier = run.frontier[1:]

		reqCtx := colly.NewContext()
		reqCtx.Put(depthKey, item.Depth)
		reqCtx.Put(requestedKey, item.URL)
		reqCtx.Put(sourceKey, item.SourceURL)

		err := collector.Request(http.MethodGet, item.URL, nil, reqCtx, nil)
		if err != nil && item.Depth == 0 && run.stats.Records == 0 {
			run.stats.Duration = time.Since(startTime).Seconds()
			return run.stats, fmt.Errorf("访问种子URL失败: %w", err)
		}
	}

	run.stats.Duration = time.Since(startTime).Seconds()
	run.stats.Visited = run.visited.Len()

	if run.emitErr != nil && !errors.Is(run.emitErr, ErrStopCrawl) {
		return run.stats, run.emitErr
	}

	utils.Infof("✅ 爬取完成: 请求 %d 个, 记录 %d 条, 失败 %d 个, 耗时 %.2f秒",
		run.stats.Requests, run.stats.Records, run.stats.Errors, run.stats.Duration)

	return run.stats, nil
}

// newCollector 创建同步模式的collector
// 不使用AllowedDomains和MaxDepth,域名和深度都由应用层控制
func (run *crawlRun) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.AllowURLRevisit(),
	)

	c.SetRequestTimeout(run.config.RequestTimeout)
	c.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: run.config.InsecureSkipVerify,
		},
		ResponseHeaderTimeout: run.config.RequestTimeout,
	})

	// 重定向到其它域名时中止,保证所有记录都属于种子域名
	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("重定向次数超过 %d", maxRedirects)
		}
		if req.URL.Host != run.domain {
			return fmt.Errorf("跨域重定向已阻止: %s", req.URL)
		}
		return nil
	})

	c.OnRequest(run.onRequest)
	c.OnResponse(run.onResponse)
	c.OnHTML("html", run.onHTML)
	c.OnError(func(r *colly.Response, err error) {
		run.stats.Errors++
		utils.Warnf("爬取错误 [%s]: %v", r.Request.URL, err)
	})

	return c
}

func (run *crawlRun) onRequest(r *colly.Request) {
	if run.stopped || run.stats.Records >= run.config.MaxItems || run.ctx.Err() != nil {
		r.Abort()
		return
	}
	if r.URL.Host != run.domain {
		utils.Debugf("拒绝跨域请求: %s (目标域名: %s)", r.URL, run.domain)
		r.Abort()
		return
	}

	for name, values := range run.headers {
		if len(values) > 0 {
			r.Headers.Set(name, values[0])
		}
	}

	run.stats.Requests++
	if source := r.Ctx.Get(sourceKey); source != "" {
		utils.Debugf("访问: %s (深度=%d, 来源=%s)", r.URL, requestDepth(r), source)
	} else {
		utils.Debugf("访问: %s (深度=%d)", r.URL, requestDepth(r))
	}
}

// onResponse 在HTML解析前解压响应体
func (run *crawlRun) onResponse(r *colly.Response) {
	encoding := r.Headers.Get("Content-Encoding")
	if encoding == "" {
		return
	}
	body, err := decompressResponse(encoding, r.Body)
	if err != nil {
		utils.Warnf("解压响应失败 [%s] (编码=%s): %v", r.Request.URL, encoding, err)
		return
	}
	r.Body = body
}

func (run *crawlRun) onHTML(e *colly.HTMLElement) {
	if run.stopped || run.stats.Records >= run.config.MaxItems {
		run.stopped = true
		return
	}

	pageURL := e.Request.URL
	if pageURL.Host != run.domain {
		utils.Debugf("页面不属于目标域名,跳过: %s", pageURL)
		return
	}
	// 重定向后的最终URL也要去重, 已访问过的页面不再产出记录
	if requested := e.Request.Ctx.Get(requestedKey); requested != "" && requested != pageURL.String() {
		if !run.visited.MarkVisited(pageURL.String()) {
			utils.Debugf("重定向目标已访问,跳过: %s -> %s", requested, pageURL)
			run.stats.Skipped++
			return
		}
	}

	depth := requestDepth(e.Request)
	record := models.CrawlRecord{
		URL:     pageURL.String(),
		Title:   extractTitle(e.DOM),
		Content: extractParagraphText(e.DOM),
		Status:  e.Response.StatusCode,
		Depth:   depth,
	}

	if err := run.emit(record); err != nil {
		run.emitErr = err
		run.stopped = true
		return
	}
	run.stats.Records++

	if run.stats.Records >= run.config.MaxItems {
		run.stopped = true
		return
	}
	if depth >= run.config.Depth {
		return
	}

	e.DOM.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		link, ok := resolveLink(pageURL, href)
		if !ok {
			return
		}
		if link.Host != run.domain {
			utils.Debugf("跳过跨域链接: %s (目标域名: %s)", link, run.domain)
			return
		}
		if !run.visited.MarkVisited(link.String()) {
			return
		}
		run.frontier = append(run.frontier, models.URLItem{
			URL:       link.String(),
			Depth:     depth + 1,
			SourceURL: pageURL.String(),
		})
	})
}

// resolveLink 将href解析为相对于页面URL的绝对地址,仅保留http(s)链接
func resolveLink(base *url.URL, href string) (*url.URL, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return nil, false
	}
	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	link := base.ResolveReference(ref)
	if link.Scheme != "http" && link.Scheme != "https" {
		return nil, false
	}
	return link, true
}

// requestDepth 读取请求上下文中的深度, 缺省为0
func requestDepth(r *colly.Request) int {
	if r.Ctx == nil {
		return 0
	}
	if depth, ok := r.Ctx.GetAny(depthKey).(int); ok {
		return depth
	}
	return 0
}
