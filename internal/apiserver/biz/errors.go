package biz

import "errors"

// ErrNoContent 表示文档解析后没有任何可入库的文本块。
var ErrNoContent = errors.New("no content extracted from document")
