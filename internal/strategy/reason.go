package strategy

import (
	"kstock/internal/market"
)

const semiMorningContext = "특히 밤사이 미 반도체 지수(SOXX)의 강세 속에 국내 관련 섹터로의 낙수 효과가 기대되며, "

// narrate 추천 사유와 핵심 패턴
func (s *Strategist) narrate(c market.Candidate, mode market.Mode, bonus Bonus) (reason, rationale string) {
	need := s.sel.MinConsecutive

	var who string
	switch {
	case c.ForeignDays >= need && c.InstitutionDays >= need:
		who = "외국인과 기관이"
	case c.ForeignDays >= need:
		who = "외국인이"
	case c.InstitutionDays >= need:
		who = "기관이"
	default:
		who = "주요 수급 주체가"
	}

	rationale = Pattern(c.Technical)

	var prefix string
	if mode == market.Morning && c.Semi && bonus.Semi > 0 {
		prefix = semiMorningContext
	}
	reason = prefix + who + " 최근 꾸준히 매집 중인 종목으로 " + rationale + " 패턴을 형성하고 있음"
	return reason, rationale
}

// Pattern 기술적 패턴 이름. 돌파 > 눌림목 > 정배열 순으로 우선한다.
func Pattern(t market.Technical) string {
	switch {
	case t.Breakout:
		return "강력한 상승 돌파"
	case t.Pullback:
		return "안정적인 눌림목"
	case t.Perfect:
		return "완벽한 정배열"
	default:
		return "견조한 우상향"
	}
}
