package entity

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ArtifactKind 产物类型
type ArtifactKind string

const (
	ArtifactProject     ArtifactKind = "project"
	ArtifactFeasibility ArtifactKind = "feasibility"
	ArtifactOutline     ArtifactKind = "outline"
	ArtifactChapterPlan ArtifactKind = "chapter_plan"
	ArtifactChapter     ArtifactKind = "chapter"
)

// Valid 判断产物类型是否合法
func (k ArtifactKind) Valid() bool {
	switch k {
	case ArtifactProject, ArtifactFeasibility, ArtifactOutline, ArtifactChapterPlan, ArtifactChapter:
		return true
	}
	return false
}

// ChapterKey 章节正文按章节号区分的存储键
func ChapterKey(number uint32) string {
	return string(ArtifactChapter) + ":" + strconv.FormatUint(uint64(number), 10)
}

// Artifact 持久化的产物记录，同一项目同一键只保留最新版本
type Artifact struct {
	ProjectID string          `json:"project_id" gorm:"type:varchar(64);primaryKey"`
	Key       string          `json:"key" gorm:"type:varchar(64);primaryKey"`
	Kind      ArtifactKind    `json:"kind" gorm:"type:varchar(32);index;not null"`
	Version   int             `json:"version" gorm:"not null;default:1"`
	Content   json.RawMessage `json:"content" gorm:"type:jsonb;not null"`
	CreatedAt time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Artifact) TableName() string {
	return "artifacts"
}

// NewArtifact 序列化产物内容
func NewArtifact(projectID, key string, kind ArtifactKind, v any) (*Artifact, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("invalid artifact kind: %s", kind)
	}
	content, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s artifact: %w", kind, err)
	}
	return &Artifact{
		ProjectID: projectID,
		Key:       key,
		Kind:      kind,
		Version:   1,
		Content:   content,
	}, nil
}

// Decode 反序列化产物内容
func (a *Artifact) Decode(out any) error {
	if err := json.Unmarshal(a.Content, out); err != nil {
		return fmt.Errorf("unmarshal %s artifact: %w", a.Kind, err)
	}
	return nil
}
