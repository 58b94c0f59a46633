// Package embedding defines the embedding provider abstraction and its registry.
package embedding

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Provider 定义向量嵌入供应商接口。
type Provider interface {
	// Name 返回供应商名称。
	Name() string

	// Embed 为多个文本生成向量嵌入，返回顺序与输入一致。
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedSingle 为单个文本生成向量嵌入。
	EmbedSingle(ctx context.Context, text string) ([]float32, error)
}

// Factory 从配置 map 创建供应商实例。
type Factory func(configMap map[string]any) (Provider, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register 注册供应商工厂。供应商包在 init 中调用。
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[name] = factory
}

// New 根据名称和配置创建供应商实例。
func New(name string, configMap map[string]any) (Provider, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown embedding provider %q (registered: %v)", name, Registered())
	}
	return factory(configMap)
}

// Registered 返回已注册的供应商名称。
func Registered() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
