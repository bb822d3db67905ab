package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const policyText = "情報セキュリティ規程。すべての従業員は、パスワードを90日ごとに変更しなければならない。" +
	"セキュリティ事故を発見した場合、従業員は24時間以内に情報システム部の責任者へ報告する。" +
	"責任者は報告内容を監査し、年2回の点検結果を管理者に共有する。違反率は5%未満を目標とする。"

func TestKeywords_FrequencyThenFirstOccurrence(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Keywords("alpha beta gamma delta gamma beta gamma, omega! beta")
	// gamma=3, beta=3 (beta first), alpha/delta/omega=1; "beta" is 4 runes so kept
	assert.Equal(t, []string{"beta", "gamma", "alpha", "delta", "omega"}, got)
}

func TestKeywords_FiltersShortAndStopwords(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Keywords("The cat sat with this mat; Security SECURITY security audit")
	assert.Equal(t, []string{"security", "audit"}, got)
}

func TestKeywords_TopFive(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Keywords("aaaa bbbb cccc dddd eeee ffff gggg")
	assert.Len(t, got, 5)
	assert.Equal(t, "aaaa", got[0])
}

func TestKeywords_JapaneseWords(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Keywords(policyText)
	// 情報/セキュリティ/従業員/責任者 appear twice; 規程 is the earliest single
	assert.Equal(t, []string{"情報", "セキュリティ", "従業員", "責任者", "規程"}, got)
	for _, kw := range got {
		assert.NotContains(t, kw, "は")
		assert.NotContains(t, kw, "を")
	}
}

func TestKeywords_JapaneseStopwordsApply(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Keywords("すべての場合について報告しなければならない。報告ものとする。")
	assert.Equal(t, []string{"報告"}, got)
}

func TestTokenize_ScriptRuns(t *testing.T) {
	got := tokenize("従業員はVPNでログインする。Audit-Log 2回")
	assert.Equal(t, []string{"従業員", "は", "vpn", "で", "ログイン", "する", "audit", "log", "2", "回"}, got)
}

func TestNumbers(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Numbers(policyText)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"90日", "24時間", "2回"}, got)
}

func TestNumbers_LongestUnitWins(t *testing.T) {
	a := NewAnalyzer(nil)

	assert.Equal(t, []string{"3日間", "1,000万円"}, a.Numbers("研修は3日間、予算は1,000万円です。"))
	assert.Equal(t, []string{"15%"}, a.Numbers("improve by 15 % this year"))
}

func TestNumbers_LatinUnitsNeedWordBoundary(t *testing.T) {
	a := NewAnalyzer(nil)

	assert.Empty(t, a.Numbers("3 times per 2 teams and 5 months"))
	assert.Equal(t, []string{"5kg", "12km", "3m"}, a.Numbers("Lift 5 kg, walk 12km. Keep 3 m away"))
	assert.Equal(t, []string{"5kg"}, a.Numbers("5kgの荷物"))
}

func TestRoles_DistinctInOrder(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Roles(policyText)
	assert.Equal(t, []string{"従業員", "情報システム部", "責任者"}, got)
}

func TestTopics_DistinctInOrder(t *testing.T) {
	a := NewAnalyzer(nil)

	got := a.Topics(policyText)
	// the longer "情報セキュリティ" shadows "セキュリティ" at the same position
	assert.Equal(t, []string{"情報セキュリティ", "規程", "セキュリティ", "報告", "監査"}, got)
}

func TestFeatures_NoMatchesIsEmptyNotNil(t *testing.T) {
	a := NewAnalyzer(nil)

	f := a.Features("")
	assert.NotNil(t, f.Keywords)
	assert.NotNil(t, f.Numbers)
	assert.NotNil(t, f.Roles)
	assert.NotNil(t, f.Topics)
	assert.Empty(t, f.Keywords)
	assert.Empty(t, f.Roles)
}

func TestNewAnalyzer_CustomVocabulary(t *testing.T) {
	v := DefaultVocabulary()
	v.Roles = []string{"manager", "employee"}
	v.Units = []string{"days"}
	a := NewAnalyzer(v)

	text := "Every employee must inform a manager within 5 days."
	assert.Equal(t, []string{"employee", "manager"}, a.Roles(text))
	assert.Equal(t, []string{"5days"}, a.Numbers(text))
	assert.Same(t, v, a.Vocabulary())
}

func TestNewAnalyzer_EmptyListsNeverFail(t *testing.T) {
	a := NewAnalyzer(&Vocabulary{})

	f := a.Features(policyText)
	assert.Empty(t, f.Numbers)
	assert.Empty(t, f.Roles)
	assert.Empty(t, f.Topics)
	assert.NotEmpty(t, f.Keywords)
}
