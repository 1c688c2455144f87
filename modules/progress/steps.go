package progress

import (
	commonmodel "packshot-studio-server/modules/common/model"
)

// 단계 ID
const (
	StepAnalyze      = "analyze"
	StepQAGeneration = "qa-generation"
	StepRefinement   = "prompt-refinement"
	StepStudioFront  = "studio-front"
	StepStudioRest   = "studio-additional"
	StepLifestyle    = "lifestyle-generation"
	StepMarketing    = "marketing-generation"
	StepFinalize     = "finalize"
)

// StepsForPack - 팩 구성에 따른 진행 단계 템플릿
// 예상 소요 시간(초)은 실측 평균 기반
func StepsForPack(pack string, includeMarketing bool, imageCount int) []Step {
	steps := []Step{
		{ID: StepAnalyze, Label: "Analyzing item details", EstimatedDuration: 15},
		{ID: StepQAGeneration, Label: "Generating QA seed image", EstimatedDuration: 30},
		{ID: StepRefinement, Label: "Refining shot prompts", EstimatedDuration: 20},
	}

	if pack == commonmodel.PackAll || pack == commonmodel.PackStudio {
		steps = append(steps,
			Step{ID: StepStudioFront, Label: "Generating studio front view", EstimatedDuration: 35},
			Step{ID: StepStudioRest, Label: "Generating additional studio views", EstimatedDuration: 90},
		)
	}
	if pack == commonmodel.PackAll || pack == commonmodel.PackLifestyle {
		steps = append(steps,
			Step{ID: StepLifestyle, Label: "Generating lifestyle scenes", EstimatedDuration: 120},
		)
	}
	if includeMarketing {
		steps = append(steps,
			Step{ID: StepMarketing, Label: "Generating marketing concepts", EstimatedDuration: 120},
		)
	}

	steps = append(steps, Step{ID: StepFinalize, Label: "Finalizing results", EstimatedDuration: 5})

	// 이미지 수가 많으면 생성 단계 예상 시간 보정
	if imageCount > 8 {
		for i := range steps {
			switch steps[i].ID {
			case StepStudioRest, StepLifestyle, StepMarketing:
				steps[i].EstimatedDuration = steps[i].EstimatedDuration * imageCount / 8
			}
		}
	}

	for i := range steps {
		steps[i].Status = StatusPending
	}
	return steps
}
