// Package crawlers 提供同域名、限深度、限数量的页面爬取功能
//
// # 概述
//
// crawlers包基于Colly实现单线程广度优先遍历。每访问一个HTML页面产出一条
// models.CrawlRecord,通过回调交给调用方(通常是写入结果文件的Crawl Runner)。
//
// # 核心组件
//
// ## PageCrawler
//
// 以同步模式驱动colly.Collector,自行维护待爬队列和已访问集合。
// 深度保存在每个请求的colly.Context中,种子为0。
//
//	crawler := NewPageCrawler(Config{Depth: 1, MaxItems: 100}, headerProvider)
//	stats, err := crawler.Crawl(ctx, "https://example.com/", func(rec models.CrawlRecord) error {
//	    return writer.Write(rec)
//	})
//
// 遍历规则:
//   - 种子URL在访问前加入已访问集合
//   - 已产出记录数达到MaxItems时停止,不再发出请求
//   - 深度小于Depth时提取<a href>,解析为绝对地址后只保留与种子host[:port]相同的链接
//   - 链接在入队时即标记为已访问,同一URL最多访问一次
//   - 不做URL规范化,结尾斜杠和片段不同视为不同URL
//   - 跨域重定向被阻止,非2xx和非HTML响应不产出记录
//
// ## VisitedSet
//
// 线程安全的已访问URL集合。
//
// ## ResourceMonitor
//
// 基于gopsutil采样内存和CPU,供任务启动器在资源不足时拒绝启动新的爬取进程。
//
//	monitor := NewResourceMonitor(ResourceMonitorConfig{MinAvailableMemory: 512})
//	monitor.StartMonitoring(ctx, 5*time.Second)
//	if ok, reason := monitor.CheckResourceAvailability(); !ok {
//	    // 拒绝启动
//	}
//
// # 响应解压
//
// Colly自动处理gzip。deflate和br(andybalholm/brotli)在OnResponse中解压后再解析HTML。
package crawlers
