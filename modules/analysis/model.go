package analysis

import (
	"packshot-studio-server/modules/common/imaging"
)

// 촬영 타입
const (
	TypeGarment = "garment"
	TypeProduct = "product"
)

// AnalyzeRequest - 분석 요청
type AnalyzeRequest struct {
	SubjectImages  []imaging.ImageInput `json:"subjectImages"`  // 1~2장
	BackgroundRefs []imaging.ImageInput `json:"backgroundRefs"` // 최대 3장
	ModelRefs      []imaging.ImageInput `json:"modelRefs"`      // 최대 3장
	Type           string               `json:"type"`           // garment | product
}

// AnalysisResult - 분석 결과 (세 필드 모두 비어있으면 안 됨)
type AnalysisResult struct {
	ItemAnalysis  string `json:"itemAnalysis"`
	QAChecklist   string `json:"qaChecklist"`
	InitialPrompt string `json:"initialJsonPrompt"`
}

// rawAnalysis - 모델 응답 파싱용 (garment 타입은 garmentAnalysis 키를 씀)
type rawAnalysis struct {
	ItemAnalysis    string `json:"itemAnalysis"`
	GarmentAnalysis string `json:"garmentAnalysis"`
	QAChecklist     string `json:"qaChecklist"`
	InitialPrompt   string `json:"initialJsonPrompt"`
}
