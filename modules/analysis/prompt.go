package analysis

import (
	"fmt"
)

// BuildAnalysisInstruction - 촬영 타입별 분석 프롬프트 생성
func BuildAnalysisInstruction(photoshootType string, subjectCount, backgroundRefCount, modelRefCount int) string {
	subjectNoun := "product"
	analysisKey := "itemAnalysis"
	focusPoints := `- Material, finish, and texture (matte, glossy, brushed metal, etc.)
- Exact colors, including secondary tones and gradients
- Shape, proportions, and distinctive silhouette details
- Logos, labels, engravings, or printed text (transcribe exactly)
- Surface condition and any manufacturing details visible`
	if photoshootType == TypeGarment {
		subjectNoun = "garment"
		analysisKey = "garmentAnalysis"
		focusPoints = `- Fabric type, weave, and texture
- Exact colors, patterns, and prints (describe pattern repeat precisely)
- Cut, fit, silhouette, and construction details (seams, stitching, hems)
- Hardware: buttons, zippers, buckles, eyelets (material and placement)
- Logos, tags, embroidery, or printed text (transcribe exactly)`
	}

	multiItemRule := ""
	if subjectCount == 2 {
		multiItemRule = fmt.Sprintf(`
TWO IMAGES PROVIDED:
First decide whether both images show the SAME %[1]s (different angles) or TWO DISTINCT %[1]ss.
- Same %[1]s: merge observations from both angles into one analysis.
- Two distinct %[1]ss: analyze each separately, delimiting with "**Item 1 ...**" and "**Item 2 ...**" heading blocks, and make the checklist and prompt cover both.`, subjectNoun)
	}

	refContext := ""
	if backgroundRefCount > 0 {
		refContext += fmt.Sprintf("\n%d background reference image(s) follow the subject image(s); use them only to inform scene/mood suggestions in the prompt, never as the subject.", backgroundRefCount)
	}
	if modelRefCount > 0 {
		refContext += fmt.Sprintf("\n%d model reference image(s) are included; use them only for pose/styling direction.", modelRefCount)
	}

	return fmt.Sprintf(`You are a professional commercial photography director preparing a %[1]s photoshoot.

Analyze the provided %[1]s image(s) with forensic detail. Focus on:
%[2]s
%[3]s%[4]s

Respond with a single JSON object containing exactly these keys:
{
  "%[5]s": "exhaustive factual description of the %[1]s",
  "qaChecklist": "numbered checklist of visual attributes that any generated image MUST reproduce faithfully",
  "initialJsonPrompt": "a detailed base generation prompt describing the %[1]s in a clean studio setting"
}

All three values must be non-empty strings. Do not include any text outside the JSON object.`,
		subjectNoun, focusPoints, multiItemRule, refContext, analysisKey)
}
