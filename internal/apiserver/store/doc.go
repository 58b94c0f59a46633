// Package store 提供向量存储抽象及其 Milvus 实现。
package store
