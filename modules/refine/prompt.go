package refine

import (
	"fmt"
	"strings"

	"packshot-studio-server/modules/analysis"
)

// BuildRefineInstruction - QA + 프롬프트 정제 지시문 생성
// 시드 이미지를 체크리스트와 대조하고, 교정 사항을 반영한 프롬프트 세트를 요구
func BuildRefineInstruction(a *analysis.AnalysisResult, includeMarketing bool) string {
	expected := ExpectedTitles(includeMarketing)
	titleList := make([]string, len(expected))
	for i, title := range expected {
		titleList[i] = fmt.Sprintf("  %d. \"%s\"", i+1, title)
	}

	marketingRule := ""
	if includeMarketing {
		marketingRule = `
MARKETING CONCEPTS:
The four marketing concepts are bold, campaign-style shots (dramatic lighting, graphic
compositions, seasonal or emotional framing). They may diverge from the studio look but
must still reproduce the item faithfully.`
	}

	return fmt.Sprintf(`You are the QA director of a commercial photoshoot.

ITEM ANALYSIS:
%s

QA CHECKLIST:
%s

BASE PROMPT:
%s

The last image provided is a generated seed image. Compare it against the QA checklist,
note every deviation from the real item (the earlier images), and fold the corrections
into a refined set of generation prompts.

CONSISTENCY RULES:
- All four studio prompts share ONE background and ONE lighting setup.
- All four lifestyle prompts share ONE scene and environment.%s

Respond with a JSON array of exactly %d objects, each {"title": "...", "prompt": "..."}.
The titles must be exactly:
%s

Every prompt must be a complete, self-contained generation prompt. No text outside the JSON array.`,
		a.ItemAnalysis, a.QAChecklist, a.InitialPrompt, marketingRule,
		len(expected), strings.Join(titleList, "\n"))
}
