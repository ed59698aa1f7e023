package models

// URLItem 待抓取的URL
type URLItem struct {
	// URL 完整的URL字符串
	URL string

	// Depth 发现深度
	//   - 0: 种子URL
	//   - 1: 从种子页面发现的链接
	//   - 以此类推...
	Depth int

	// SourceURL 发现此URL的页面(可选,用于调试)
	SourceURL string
}
