package photoshoot

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"packshot-studio-server/modules/analysis"
	"packshot-studio-server/modules/common/imaging"
	commonmodel "packshot-studio-server/modules/common/model"
	"packshot-studio-server/modules/refine"
)

// 태스크 카테고리
const (
	CategoryStudioFront = "studio-front"
	CategoryStudio      = "studio"
	CategoryLifestyle   = "lifestyle"
	CategoryMarketing   = "marketing"
)

// 태스크 상태 (앞으로만 진행: pending → generating → succeeded | failed)
const (
	TaskPending    = "pending"
	TaskGenerating = "generating"
	TaskSucceeded  = "succeeded"
	TaskFailed     = "failed"
)

// 실행 상태
const (
	RunQueued    = "queued"
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
	RunCanceled  = "canceled"
)

// GenerationTask - 이미지 1장 생성 단위
type GenerationTask struct {
	ID             string `json:"id"`
	Title          string `json:"title"`
	Category       string `json:"category"`
	Prompt         string `json:"prompt"`
	AspectRatio    string `json:"aspectRatio"`
	Status         string `json:"status"`
	ResultImageURL string `json:"resultImageUrl,omitempty"`
	ErrorMessage   string `json:"errorMessage,omitempty"`
}

// RunRequest - 촬영 실행 요청
type RunRequest struct {
	SubjectImages    []imaging.ImageInput `json:"subjectImages"`
	BackgroundRefs   []imaging.ImageInput `json:"backgroundRefs,omitempty"`
	ModelRefs        []imaging.ImageInput `json:"modelRefs,omitempty"`
	Type             string               `json:"type"` // garment | product
	Pack             string               `json:"pack"` // all | studio | lifestyle
	IncludeMarketing bool                 `json:"includeMarketing"`
}

// Run - 촬영 실행 상태
type Run struct {
	ID              string                   `json:"id"`
	Status          string                   `json:"status"`
	Request         RunRequest               `json:"request"`
	SubjectDataURLs []string                 `json:"-"`
	Analysis        *analysis.AnalysisResult `json:"analysis,omitempty"`
	SeedImageURL    string                   `json:"seedImageUrl,omitempty"`
	Prompts         []refine.RefinedPrompt   `json:"prompts,omitempty"`
	Tasks           []GenerationTask         `json:"tasks,omitempty"`
	ErrorMessage    string                   `json:"errorMessage,omitempty"`
	CreatedAt       time.Time                `json:"createdAt"`
	UpdatedAt       time.Time                `json:"updatedAt"`
}

// ClassifyTitle - 제목으로 카테고리 분류 (태스크 생성 시 한 번만 호출)
func ClassifyTitle(title string) string {
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "front"):
		return CategoryStudioFront
	case strings.Contains(lower, "lifestyle"):
		return CategoryLifestyle
	case strings.Contains(lower, "marketing"):
		return CategoryMarketing
	default:
		return CategoryStudio
	}
}

// NewTasks - 정제된 프롬프트에서 팩 필터를 적용해 태스크 생성
func NewTasks(prompts []refine.RefinedPrompt, pack string) []GenerationTask {
	var tasks []GenerationTask
	for _, p := range prompts {
		category := ClassifyTitle(p.Title)
		if !packIncludes(pack, category) {
			continue
		}
		tasks = append(tasks, GenerationTask{
			ID:          uuid.New().String(),
			Title:       p.Title,
			Category:    category,
			Prompt:      p.Prompt,
			AspectRatio: commonmodel.DefaultAspectRatio,
			Status:      TaskPending,
		})
	}
	return tasks
}

// packIncludes - 팩이 해당 카테고리를 포함하는지
func packIncludes(pack, category string) bool {
	switch pack {
	case commonmodel.PackStudio:
		return category == CategoryStudioFront || category == CategoryStudio
	case commonmodel.PackLifestyle:
		return category == CategoryLifestyle
	default: // all
		return true
	}
}

// AnchorIndex - 배치의 앵커 태스크 인덱스
// "front"를 포함하는 첫 제목, 없으면 첫 태스크
func AnchorIndex(tasks []GenerationTask) int {
	for i, task := range tasks {
		if strings.Contains(strings.ToLower(task.Title), "front") {
			return i
		}
	}
	return 0
}
