package refine

import (
	"packshot-studio-server/modules/analysis"
	"packshot-studio-server/modules/common/imaging"
)

// RefinedPrompt - 정제된 촬영 프롬프트
type RefinedPrompt struct {
	Title  string `json:"title"`
	Prompt string `json:"prompt"`
}

// RefineRequest - QA 및 프롬프트 정제 요청
type RefineRequest struct {
	SubjectImages    []imaging.ImageInput     `json:"subjectImages"`
	QAImage          imaging.ImageInput       `json:"qaImage"` // 시드 이미지 (QA 대상)
	Analysis         *analysis.AnalysisResult `json:"analysis"`
	IncludeMarketing bool                     `json:"includeMarketing"`
}

// StudioTitles - 스튜디오 프롬프트 제목 (정확히 이 4개)
var StudioTitles = []string{
	"Studio Prompt - Front View",
	"Studio Prompt - Back View",
	"Studio Prompt - Side View",
	"Studio Prompt - Close-up Detail",
}

// LifestyleTitles - 라이프스타일 프롬프트 제목 (정확히 이 4개)
var LifestyleTitles = []string{
	"Lifestyle Prompt - Scene 1",
	"Lifestyle Prompt - Scene 2",
	"Lifestyle Prompt - Scene 3",
	"Lifestyle Prompt - Scene 4",
}

// MarketingTitles - 마케팅 프롬프트 제목 (마케팅 팩 포함 시)
var MarketingTitles = []string{
	"Marketing Prompt - Concept 1",
	"Marketing Prompt - Concept 2",
	"Marketing Prompt - Concept 3",
	"Marketing Prompt - Concept 4",
}

// ExpectedTitles - 요청 구성에 따른 기대 제목 집합
func ExpectedTitles(includeMarketing bool) []string {
	titles := make([]string, 0, 12)
	titles = append(titles, StudioTitles...)
	titles = append(titles, LifestyleTitles...)
	if includeMarketing {
		titles = append(titles, MarketingTitles...)
	}
	return titles
}
