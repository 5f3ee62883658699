package utils

import (
	"github.com/google/uuid"
)

// RequestIDHeader 请求ID头，客户端可自带
const RequestIDHeader = "X-Request-ID"

// GenerateRequestID 生成新的请求ID
func GenerateRequestID() string {
	return uuid.New().String()
}

// RequestIDOrNew 复用合法的客户端请求ID，否则生成新ID
func RequestIDOrNew(incoming string) string {
	if incoming != "" {
		if _, err := uuid.Parse(incoming); err == nil {
			return incoming
		}
	}
	return GenerateRequestID()
}
