package tier

import (
	"testing"

	"corpwise-go/internal/api"
)

func TestRecommend(t *testing.T) {
	tests := []struct {
		name    string
		answers Answers
		want    ID
	}{
		{
			name:    "全空作答落在最低档",
			answers: Answers{},
			want:    Starter,
		},
		{
			name: "小团队简单场景",
			answers: Answers{
				DocumentTypes: []string{"policies"},
				Languages:     1,
				Complexity:    "simple",
				CompanySize:   "1-50",
			},
			want: Starter,
		},
		{
			name: "恰好两分进中档",
			answers: Answers{
				DocumentTypes: []string{"technical"},
				Languages:     1,
				Complexity:    "simple",
				CompanySize:   "1-50",
			},
			want: Professional,
		},
		{
			name: "混合文档加双语也进中档",
			answers: Answers{
				DocumentTypes: []string{"mixed"},
				Languages:     2,
				Complexity:    "simple",
				CompanySize:   "51-200",
			},
			want: Professional,
		},
		{
			name: "恰好五分进最高档",
			answers: Answers{
				DocumentTypes: []string{"specialized"},
				Languages:     5,
				Complexity:    "technical",
				CompanySize:   "1-50",
			},
			want: Enterprise,
		},
		{
			name: "大型企业复杂场景",
			answers: Answers{
				DocumentTypes: []string{"technical", "mixed"},
				Languages:     6,
				Complexity:    "specialized",
				CompanySize:   "500+",
			},
			want: Enterprise,
		},
		{
			name: "技术与专业文档不叠加计分",
			answers: Answers{
				DocumentTypes: []string{"technical", "specialized"},
				Languages:     1,
				Complexity:    "simple",
				CompanySize:   "1-50",
			},
			want: Professional,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Recommend(tt.answers); got != tt.want {
				t.Errorf("Recommend() = %v, want %v", got, tt.want)
			}
		})
	}
}

func testTiers() map[string]api.Tier {
	return map[string]api.Tier{
		"starter":      {MaxDocuments: 20, MaxQueriesPerMo: 5000, MaxEmployees: 50},
		"professional": {MaxDocuments: 100, MaxQueriesPerMo: 25000, MaxEmployees: 200},
		"enterprise":   {MaxDocuments: -1, MaxQueriesPerMo: -1, MaxEmployees: -1},
	}
}

func TestReconcile(t *testing.T) {
	tests := []struct {
		name        string
		target      ID
		usage       Usage
		wantAllowed bool
		wantReasons int
	}{
		{
			name:        "用量为零任意换档",
			target:      Starter,
			usage:       Usage{},
			wantAllowed: true,
		},
		{
			name:        "文档超限阻止降档",
			target:      Starter,
			usage:       Usage{Documents: 21},
			wantAllowed: false,
			wantReasons: 1,
		},
		{
			name:        "恰好等于限额允许",
			target:      Starter,
			usage:       Usage{Documents: 20, Employees: 50, QueriesMo: 5000},
			wantAllowed: true,
		},
		{
			name:        "多项超限逐一列出原因",
			target:      Starter,
			usage:       Usage{Documents: 30, Employees: 80, QueriesMo: 9000},
			wantAllowed: false,
			wantReasons: 3,
		},
		{
			name:        "不限额档位永远容纳",
			target:      Enterprise,
			usage:       Usage{Documents: 100000, Employees: 99999, QueriesMo: 1 << 30},
			wantAllowed: true,
		},
		{
			name:        "目标档位不存在",
			target:      ID("platinum"),
			usage:       Usage{},
			wantAllowed: false,
			wantReasons: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.target, tt.usage, testTiers())
			if got.Allowed != tt.wantAllowed {
				t.Errorf("Allowed = %v, want %v (reasons: %v)", got.Allowed, tt.wantAllowed, got.Reasons)
			}
			if len(got.Reasons) != tt.wantReasons {
				t.Errorf("len(Reasons) = %d, want %d: %v", len(got.Reasons), tt.wantReasons, got.Reasons)
			}
		})
	}
}
