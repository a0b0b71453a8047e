package game

import (
	"math/rand"
	"strings"
)

// defaultWords is the built-in word pool. Custom words supplied by the
// room owner are sampled ahead of it.
var defaultWords = []string{
	"苹果", "香蕉", "西瓜", "葡萄", "草莓", "柠檬", "菠萝", "樱桃",
	"老虎", "熊猫", "兔子", "大象", "长颈鹿", "企鹅", "海豚", "猫头鹰",
	"蝴蝶", "蜗牛", "乌龟", "螃蟹", "章鱼", "鲨鱼", "孔雀", "鹦鹉",
	"电脑", "手机", "电视", "冰箱", "雨伞", "眼镜", "手表", "钥匙",
	"自行车", "火车", "飞机", "轮船", "火箭", "地铁", "摩托车", "热气球",
	"太阳", "月亮", "星星", "彩虹", "闪电", "雪人", "火山", "瀑布",
	"医生", "警察", "老师", "厨师", "宇航员", "消防员", "魔术师", "海盗",
	"篮球", "足球", "乒乓球", "羽毛球", "游泳", "滑冰", "跳绳", "拔河",
	"蛋糕", "饺子", "火锅", "冰淇淋", "汉堡", "寿司", "爆米花", "棉花糖",
	"长城", "灯笼", "风筝", "京剧", "功夫", "舞龙", "剪纸", "糖葫芦",
	"吉他", "钢琴", "小提琴", "架子鼓", "口琴", "唢呐", "古筝", "笛子",
	"机器人", "恐龙", "外星人", "美人鱼", "独角兽", "吸血鬼", "木乃伊", "圣诞老人",
}

// WordBank samples word choices for the choosing phase.
type WordBank struct {
	pool []string
	intn func(n int) int
}

// NewWordBank builds a bank over the default pool.
func NewWordBank() *WordBank {
	return &WordBank{pool: defaultWords, intn: rand.Intn}
}

// PickWordChoices returns up to count unique words, custom words ranked
// ahead of the built-in pool. The result is never empty for count > 0
// because the built-in pool is non-empty.
func (wb *WordBank) PickWordChoices(count int, customWords []string) []string {
	pool := make([]string, 0, len(customWords)+len(wb.pool))
	seen := make(map[string]struct{}, len(customWords)+len(wb.pool))
	for _, w := range customWords {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		pool = append(pool, w)
	}
	for _, w := range wb.pool {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		pool = append(pool, w)
	}

	if count > len(pool) {
		count = len(pool)
	}
	if count <= 0 {
		return nil
	}

	// Partial Fisher-Yates over a copy: fair draw without repetition.
	picked := make([]string, 0, count)
	for i := 0; i < count; i++ {
		j := i + wb.intn(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
		picked = append(picked, pool[i])
	}
	return picked
}
