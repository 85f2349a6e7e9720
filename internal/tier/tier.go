// Package tier 实现订阅档位的推荐打分与用量核对。
package tier

import "corpwise-go/internal/api"

// ID 是订阅档位的标识。
type ID string

const (
	Starter      ID = "starter"
	Professional ID = "professional"
	Enterprise   ID = "enterprise"
)

// Answers 是引导问卷的作答。
type Answers struct {
	// DocumentTypes 取值：policies/technical/specialized/mixed 等
	DocumentTypes []string
	// Languages 是需要支持的语言数量
	Languages int
	// Complexity 取值：simple/technical/specialized
	Complexity string
	// CompanySize 取值：1-50/51-200/201-500/500+
	CompanySize string
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Recommend 根据问卷作答推荐档位。
// 纯函数：固定的积分表加固定的阈值，同样的输入永远得到同样的档位。
func Recommend(a Answers) ID {
	score := 0

	// 文档类型：技术或专业文档 +2；混合 +1（两项可叠加）
	if contains(a.DocumentTypes, "technical") || contains(a.DocumentTypes, "specialized") {
		score += 2
	}
	if contains(a.DocumentTypes, "mixed") {
		score++
	}

	// 语言数量：>=5 +2，>=2 +1
	if a.Languages >= 5 {
		score += 2
	} else if a.Languages >= 2 {
		score++
	}

	// 内容复杂度：specialized +2，technical +1
	switch a.Complexity {
	case "specialized":
		score += 2
	case "technical":
		score++
	}

	// 公司规模：201-500 或 500+ +1
	if a.CompanySize == "201-500" || a.CompanySize == "500+" {
		score++
	}

	if score >= 5 {
		return Enterprise
	}
	if score >= 2 {
		return Professional
	}
	return Starter
}

// Usage 是后端返回的当前用量。
type Usage struct {
	Documents int
	Employees int
	QueriesMo int
}

// Decision 是一次档位变更意图的核对结果。
type Decision struct {
	Allowed bool
	// Reasons 给出阻止变更的原因（Allowed 为 true 时为空）
	Reasons []string
}

// Reconcile 将后端的用量/限额数据与客户端的换档意图合并：
// 目标档位无法容纳当前用量时阻止降档。限额为负值表示不限。
func Reconcile(target ID, usage Usage, tiers map[string]api.Tier) Decision {
	t, ok := tiers[string(target)]
	if !ok {
		return Decision{Allowed: false, Reasons: []string{"目标档位不存在"}}
	}

	var reasons []string
	if t.MaxDocuments >= 0 && usage.Documents > t.MaxDocuments {
		reasons = append(reasons, "当前文档数超出目标档位限额")
	}
	if t.MaxEmployees >= 0 && usage.Employees > t.MaxEmployees {
		reasons = append(reasons, "当前员工数超出目标档位限额")
	}
	if t.MaxQueriesPerMo >= 0 && usage.QueriesMo > t.MaxQueriesPerMo {
		reasons = append(reasons, "本月查询量超出目标档位限额")
	}
	return Decision{Allowed: len(reasons) == 0, Reasons: reasons}
}
