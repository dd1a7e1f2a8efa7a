package grading

import (
	"fmt"
	"strings"
)

// buildPrompt renders a single scoring prompt covering every request in the
// chunk. The instructions pin the scale, the priorities, and the exact JSON
// shape so the response survives parseResults without guesswork.
func buildPrompt(requests []Request) string {
	var b strings.Builder

	b.WriteString("당신은 회계감사 답안 채점관입니다.\n")
	b.WriteString("제공된 [문제], [사용자 답안], [모범 답안], [핵심 키워드], [참고 설명]를 분석하여 0~10점으로 채점하세요.\n")
	b.WriteString("[채점 기준]\n")
	b.WriteString("1. **용어 정확성**: 핵심 용어를 정확히 사용했는지 확인하십시오. 유사 표현보다 규정상 용어를 우선합니다.\n")
	b.WriteString("2. **키워드 포함**: 제시된 [핵심 키워드]가 사용자 답안에 포함되었는지 확인하십시오. 누락 시 감점.\n")
	b.WriteString("3. **논리 일치**: 모범 답안 및 참고 설명의 논리와 일치하는지 평가하십시오.\n")
	b.WriteString("\n")
	b.WriteString("[출력 형식]\n")
	b.WriteString("마크다운 없이 **순수 JSON 리스트**만 출력하시오.\n")
	b.WriteString("feedback 필드는 반드시 아래 마크다운 형식을 따라야 합니다:\n")
	b.WriteString("  - **✅ 매칭된 키워드**: (리스트)\n")
	b.WriteString("  - **❌ 누락된 키워드**: (리스트)\n")
	b.WriteString("  - **📝 상세 피드백**: (구체적인 조언)\n")
	b.WriteString("\n")
	b.WriteString(`[{"id": 문제ID, "score": 점수(0~10점으로 정수 단위), "feedback": "마크다운 형식의 피드백 문자열"}]` + "\n")
	b.WriteString("---\n")

	for _, req := range requests {
		keywords := "별도 지정 없음"
		if len(req.Keywords) > 0 {
			keywords = strings.Join(req.Keywords, ", ")
		}
		reference := req.Reference
		if reference == "" {
			reference = "없음"
		}

		fmt.Fprintf(&b, "\nID: %d\n", req.ID)
		fmt.Fprintf(&b, "문제: %s\n", req.Question)
		fmt.Fprintf(&b, "핵심 키워드: %s\n", keywords)
		fmt.Fprintf(&b, "모범 답안: %s\n", req.ModelAnswer)
		fmt.Fprintf(&b, "참고 설명: %s\n", reference)
		fmt.Fprintf(&b, "사용자 답안: %s\n", req.Answer)
		b.WriteString("---\n")
	}

	return b.String()
}
