package util

const (
	DateFormat = "2006-01-02"
	TimeFormat = "2006-01-02 15:04:05"
)

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

// 组卷数量上限
const (
	MaxQuizQuestions   = 100
	MaxQuizAIQuestions = 100
	MaxQuizGenerated   = 15
)

// 文件上传相关常量
const (
	MimeImage       = "image/"
	MimePDF         = "application/pdf"
	MimeOctetStream = "application/octet-stream"

	MaxPictureSize = 10 << 20
)
