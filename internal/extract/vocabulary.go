package extract

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/docquiz/internal/model"
)

// Vocabulary holds the locale-specific word lists and question texts used by
// the rule-based analyzer and quiz generator.
type Vocabulary struct {
	Stopwords []string `yaml:"stopwords"`
	Units     []string `yaml:"units"`
	Roles     []string `yaml:"roles"`
	Topics    []string `yaml:"topics"`

	Catalog Catalog `yaml:"catalog"`
}

// Catalog is the fixed question material for the rule-based quiz generator
type Catalog struct {
	// Extraction-backed slots. Question may contain one %s for the title.
	Keyword SlotText `yaml:"keyword"`
	Number  SlotText `yaml:"number"`
	Role    SlotText `yaml:"role"`

	// Always-emitted slots
	ProcedureAdherence StaticQuestion `yaml:"procedure_adherence"`
	ViolationReporting StaticQuestion `yaml:"violation_reporting"`
	PeriodicReview     StaticQuestion `yaml:"periodic_review"`

	// ShortContent is used when the document has almost no text
	ShortContent []StaticQuestion `yaml:"short_content"`

	// Placeholder strings for repaired or absent content
	Placeholders Placeholders `yaml:"placeholders"`
}

// SlotText is a question template whose correct answer comes from extraction.
// Distractors are drawn from the slot's generic catalog.
type SlotText struct {
	Question    string   `yaml:"question"`
	Explanation string   `yaml:"explanation"` // one %s for the correct answer
	Difficulty  string   `yaml:"difficulty"`
	Distractors []string `yaml:"distractors"`
}

// StaticQuestion is a fully fixed multiple-choice question
type StaticQuestion struct {
	Question    string   `yaml:"question"`
	Options     []string `yaml:"options"`
	Answer      int      `yaml:"answer"`
	Explanation string   `yaml:"explanation"`
	Difficulty  string   `yaml:"difficulty"`
}

// Placeholders are substituted when upstream output is missing a field
type Placeholders struct {
	Summary          string   `yaml:"summary"`
	KeyPoints        string   `yaml:"key_points"`
	Concepts         string   `yaml:"important_concepts"`
	Procedures       string   `yaml:"procedures"`
	Responsibilities string   `yaml:"responsibilities"`
	Compliance       string   `yaml:"compliance"`
	Question         string   `yaml:"question"` // one %d for the question number
	Options          []string `yaml:"options"`
	Explanation      string   `yaml:"explanation"`
	Untitled         string   `yaml:"untitled"` // stands in for an empty title
}

// ToQuestion builds the model question for a static entry
func (s StaticQuestion) ToQuestion() model.QuizQuestion {
	return model.QuizQuestion{
		Question:      s.Question,
		Options:       append([]string(nil), s.Options...),
		CorrectAnswer: s.Options[s.Answer],
		Explanation:   s.Explanation,
		Difficulty:    model.Difficulty(s.Difficulty),
	}
}

func (s StaticQuestion) validate(name string) error {
	if s.Question == "" {
		return fmt.Errorf("%s: question is empty", name)
	}
	if len(s.Options) != model.OptionCount {
		return fmt.Errorf("%s: expected %d options, got %d", name, model.OptionCount, len(s.Options))
	}
	if s.Answer < 0 || s.Answer >= len(s.Options) {
		return fmt.Errorf("%s: answer index %d out of range", name, s.Answer)
	}
	if !model.Difficulty(s.Difficulty).Valid() {
		return fmt.Errorf("%s: invalid difficulty %q", name, s.Difficulty)
	}
	return nil
}

func (s SlotText) validate(name string) error {
	if s.Question == "" {
		return fmt.Errorf("%s: question is empty", name)
	}
	if len(s.Distractors) < model.OptionCount {
		// one distractor may collide with the extracted answer
		return fmt.Errorf("%s: need at least %d distractors, got %d", name, model.OptionCount, len(s.Distractors))
	}
	if !model.Difficulty(s.Difficulty).Valid() {
		return fmt.Errorf("%s: invalid difficulty %q", name, s.Difficulty)
	}
	return nil
}

// Validate checks that every catalog entry can produce a well-formed question
func (v *Vocabulary) Validate() error {
	c := v.Catalog
	for name, s := range map[string]SlotText{
		"keyword": c.Keyword,
		"number":  c.Number,
		"role":    c.Role,
	} {
		if err := s.validate(name); err != nil {
			return err
		}
	}
	for name, s := range map[string]StaticQuestion{
		"procedure_adherence": c.ProcedureAdherence,
		"violation_reporting": c.ViolationReporting,
		"periodic_review":     c.PeriodicReview,
	} {
		if err := s.validate(name); err != nil {
			return err
		}
	}
	if len(c.ShortContent) != 3 {
		return fmt.Errorf("short_content: expected 3 questions, got %d", len(c.ShortContent))
	}
	for i, s := range c.ShortContent {
		if err := s.validate(fmt.Sprintf("short_content[%d]", i)); err != nil {
			return err
		}
	}
	if len(c.Placeholders.Options) != model.OptionCount {
		return fmt.Errorf("placeholders.options: expected %d, got %d", model.OptionCount, len(c.Placeholders.Options))
	}
	return nil
}

// LoadVocabulary reads a YAML vocabulary file. Sections absent from the file
// keep their built-in defaults.
func LoadVocabulary(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	v := DefaultVocabulary()
	if err := yaml.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("invalid vocabulary %s: %w", path, err)
	}
	return v, nil
}

// DefaultVocabulary returns the built-in Japanese vocabulary
func DefaultVocabulary() *Vocabulary {
	return &Vocabulary{
		Stopwords: []string{
			"これ", "それ", "あれ", "この", "その", "あの", "ため", "こと", "もの", "よう",
			"など", "および", "また", "ただし", "について", "において", "によって", "により",
			"として", "ください", "ものとする", "しなければならない", "することができる",
			"です", "ます", "する", "される", "ある", "いる", "すべて", "すべての", "それぞれ",
			"場合", "以上", "以下", "以内", "以外", "各種", "当該", "必要",
			"that", "this", "with", "from", "have", "will", "shall", "must", "been",
			"which", "their", "there", "these", "those", "into", "such", "also",
		},
		Units: []string{
			"%", "％", "パーセント",
			"件", "回", "度", "個", "名", "人",
			"日", "日間", "営業日", "週間", "ヶ月", "か月", "カ月", "年", "年間",
			"時間", "分", "秒",
			"円", "万円", "億円", "ドル",
			"kg", "g", "t", "km", "m", "cm", "mm",
		},
		Roles: []string{
			"担当者", "責任者", "管理者", "管理職", "従業員", "社員", "職員",
			"上司", "部長", "課長", "係長", "マネージャー", "リーダー",
			"監督者", "経営者", "役員", "取締役", "監査役", "委員会",
			"人事部", "総務部", "法務部", "情報システム部",
		},
		Topics: []string{
			"管理", "監査", "コンプライアンス", "セキュリティ", "情報セキュリティ",
			"個人情報", "安全", "衛生", "品質", "リスク", "ハラスメント",
			"報告", "教育", "研修", "点検", "法令", "規程", "手順", "環境",
		},
		Catalog: Catalog{
			Keyword: SlotText{
				Question:    "「%s」で最も多く取り上げられている用語はどれですか？",
				Explanation: "この文書では「%s」が繰り返し言及されており、中心的な用語です。",
				Difficulty:  "easy",
				Distractors: []string{"売上目標", "社内イベント", "福利厚生", "広告宣伝"},
			},
			Number: SlotText{
				Question:    "「%s」に記載されている数値として正しいものはどれですか？",
				Explanation: "文書には「%s」と明記されています。",
				Difficulty:  "medium",
				Distractors: []string{"記載なし", "毎回任意", "上限なし", "担当者の判断による"},
			},
			Role: SlotText{
				Question:    "「%s」で役割や責任が定められているのは誰ですか？",
				Explanation: "文書では「%s」の役割や責任について説明されています。",
				Difficulty:  "medium",
				Distractors: []string{"外部の取引先", "一般の来訪者", "株主", "顧客"},
			},
			ProcedureAdherence: StaticQuestion{
				Question: "文書で定められた手順について、正しい対応はどれですか？",
				Options: []string{
					"定められた手順に従って業務を行う",
					"効率を優先して手順を省略する",
					"前任者のやり方をそのまま踏襲する",
					"自分の判断で手順を変更する",
				},
				Answer:      0,
				Explanation: "組織の規程や手順は、業務の品質と安全を確保するために必ず遵守する必要があります。",
				Difficulty:  "easy",
			},
			ViolationReporting: StaticQuestion{
				Question: "規程違反や問題を発見した場合、最も適切な対応はどれですか？",
				Options: []string{
					"見なかったことにする",
					"同僚にだけ相談して様子を見る",
					"速やかに上司または所定の窓口に報告する",
					"自分で解決できるまで誰にも伝えない",
				},
				Answer:      2,
				Explanation: "問題の早期発見と是正のため、違反や問題は速やかに報告することが求められます。",
				Difficulty:  "medium",
			},
			PeriodicReview: StaticQuestion{
				Question: "規程や手順の内容を確認する頻度として望ましいものはどれですか？",
				Options: []string{
					"入社時に一度だけ確認すればよい",
					"問題が起きたときだけ確認する",
					"確認する必要はない",
					"定期的に見直し、最新の内容を把握する",
				},
				Answer:      3,
				Explanation: "規程や手順は改訂されることがあるため、定期的に確認して最新の内容を把握することが重要です。",
				Difficulty:  "hard",
			},
			ShortContent: []StaticQuestion{
				{
					Question: "この文書の主な目的は何ですか？",
					Options: []string{
						"組織内の重要な情報やルールを共有すること",
						"社外向けに製品を宣伝すること",
						"個人的な意見を表明すること",
						"娯楽を提供すること",
					},
					Answer:      0,
					Explanation: "社内文書は、組織内で必要な情報やルールを共有するために作成されます。",
					Difficulty:  "easy",
				},
				{
					Question: "この文書の内容が適用される範囲として最も適切なものはどれですか？",
					Options: []string{
						"特定の個人のみ",
						"関係するすべての従業員",
						"社外の第三者のみ",
						"適用範囲はない",
					},
					Answer:      1,
					Explanation: "社内文書の内容は、原則として関係するすべての従業員に適用されます。",
					Difficulty:  "easy",
				},
				{
					Question: "この文書の内容を理解することが重要な理由はどれですか？",
					Options: []string{
						"理解しなくても業務に影響はない",
						"上司に指示されたときだけ必要になる",
						"適切な業務遂行とトラブル防止につながる",
						"試験に合格するためだけに必要である",
					},
					Answer:      2,
					Explanation: "文書の内容を理解することは、適切な業務遂行とトラブルの防止につながります。",
					Difficulty:  "medium",
				},
			},
			Placeholders: Placeholders{
				Summary:          "文書の要約を取得できませんでした。",
				KeyPoints:        "主要なポイントは抽出されませんでした。",
				Concepts:         "重要な概念は抽出されませんでした。",
				Procedures:       "手順に関する記載は抽出されませんでした。",
				Responsibilities: "責任に関する記載は抽出されませんでした。",
				Compliance:       "遵守事項に関する記載は抽出されませんでした。",
				Question:         "Question %d",
				Options:          []string{"選択肢A", "選択肢B", "選択肢C", "選択肢D"},
				Explanation:      "文書の内容を確認してください。",
				Untitled:         "この文書",
			},
		},
	}
}
