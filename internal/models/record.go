package models

// NoTitle 页面缺少<title>时使用的占位标题
const NoTitle = "No title"

// CrawlRecord 单个页面的爬取结果
type CrawlRecord struct {
	URL     string `json:"url"`     // 响应URL
	Title   string `json:"title"`   // 页面标题
	Content string `json:"content"` // 段落文本,以空格连接
	Status  int    `json:"status"`  // HTTP状态码
	Depth   int    `json:"depth"`   // 发现深度, 0为种子
}
