package service

import "quiz_bank_backend/internal/model"

// Evaluate 判定选择题作答是否正确，不给部分分
//   - 单选：去重后恰好选择一个选项，且该选项正确
//   - 多选：所选集合与正确集合完全相等
//   - 其他题型一律判错
func Evaluate(questionType int, correct, selected []string) bool {
	chosen := toSet(selected)

	switch questionType {
	case model.QuestionSingleChoice:
		if len(chosen) != 1 {
			return false
		}
		answers := toSet(correct)
		for id := range chosen {
			_, ok := answers[id]
			return ok
		}
		return false
	case model.QuestionMultiChoice:
		answers := toSet(correct)
		if len(chosen) != len(answers) {
			return false
		}
		for id := range chosen {
			if _, ok := answers[id]; !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func toSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
