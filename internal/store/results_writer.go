package store

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/RecoveryAshes/teocruel/internal/models"
)

// ResultsWriter 以JSON数组流式写入爬取结果
// 写入 <path>.part, Commit 时重命名为 <path>
type ResultsWriter struct {
	path  string
	file  *os.File
	buf   *bufio.Writer
	count int
}

// NewResultsWriter 创建结果写入器
func NewResultsWriter(path string) (*ResultsWriter, error) {
	partPath := path + ".part"
	file, err := os.Create(partPath)
	if err != nil {
		return nil, &models.IOError{Op: "创建结果文件", Path: partPath, Err: err}
	}

	w := &ResultsWriter{
		path: path,
		file: file,
		buf:  bufio.NewWriter(file),
	}
	if _, err := w.buf.WriteString("["); err != nil {
		file.Close()
		return nil, err
	}
	return w, nil
}

// Write 追加一条记录
func (w *ResultsWriter) Write(rec models.CrawlRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("序列化爬取记录失败: %w", err)
	}

	sep := "\n"
	if w.count > 0 {
		sep = ",\n"
	}
	if _, err := w.buf.WriteString(sep); err != nil {
		return err
	}
	if _, err := w.buf.Write(data); err != nil {
		return err
	}
	w.count++
	return w.buf.Flush()
}

// Count 已写入的记录数
func (w *ResultsWriter) Count() int {
	return w.count
}

// Commit 结束数组并发布结果文件
func (w *ResultsWriter) Commit() error {
	if _, err := w.buf.WriteString("\n]\n"); err != nil {
		w.file.Close()
		return err
	}
	if err := w.buf.Flush(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(w.file.Name(), w.path); err != nil {
		return &models.IOError{Op: "发布结果文件", Path: w.path, Err: err}
	}
	return nil
}

// Abort 丢弃未完成的结果
func (w *ResultsWriter) Abort() {
	w.file.Close()
	os.Remove(w.file.Name())
}
