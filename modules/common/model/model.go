package model

// 촬영 팩 - 어떤 프롬프트 그룹을 생성할지
const (
	PackAll       = "all"
	PackStudio    = "studio"
	PackLifestyle = "lifestyle"
)

// DefaultAspectRatio - 제품 사진 기본 비율
const DefaultAspectRatio = "3:4"

// IsValidPack - 팩 값 검증
func IsValidPack(pack string) bool {
	switch pack {
	case PackAll, PackStudio, PackLifestyle:
		return true
	}
	return false
}
