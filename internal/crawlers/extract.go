package crawlers

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/RecoveryAshes/teocruel/internal/models"
	"golang.org/x/net/html"
)

// extractTitle 返回第一个<title>的文本节点, 没有时返回 models.NoTitle
func extractTitle(doc *goquery.Selection) string {
	texts := directTexts(doc.Find("title"))
	if len(texts) == 0 || texts[0] == "" {
		return models.NoTitle
	}
	return texts[0]
}

// extractParagraphText 拼接所有<p>的直接文本节点
// 嵌套元素(如<a>、<b>)内的文本不计入
func extractParagraphText(doc *goquery.Selection) string {
	return strings.TrimSpace(strings.Join(directTexts(doc.Find("p")), " "))
}

// directTexts 按文档顺序收集选中元素的直接子文本节点
func directTexts(sel *goquery.Selection) []string {
	var texts []string
	sel.Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					texts = append(texts, c.Data)
				}
			}
		}
	})
	return texts
}
