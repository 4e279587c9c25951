package zodiac

import (
	"time"

	"github.com/moodlink/internal/locale"
)

// Sign 表示一个星座
type Sign string

const (
	Capricorn   Sign = "capricorn"
	Aquarius    Sign = "aquarius"
	Pisces      Sign = "pisces"
	Aries       Sign = "aries"
	Taurus      Sign = "taurus"
	Gemini      Sign = "gemini"
	Cancer      Sign = "cancer"
	Leo         Sign = "leo"
	Virgo       Sign = "virgo"
	Libra       Sign = "libra"
	Scorpio     Sign = "scorpio"
	Sagittarius Sign = "sagittarius"
)

type boundary struct {
	month time.Month
	day   int
	sign  Sign
}

// 每个星座的起始日，按日历顺序排列；1 月 1 日之前的部分属于摩羯座
var boundaries = []boundary{
	{time.January, 20, Aquarius},
	{time.February, 19, Pisces},
	{time.March, 21, Aries},
	{time.April, 20, Taurus},
	{time.May, 21, Gemini},
	{time.June, 21, Cancer},
	{time.July, 23, Leo},
	{time.August, 23, Virgo},
	{time.September, 23, Libra},
	{time.October, 23, Scorpio},
	{time.November, 22, Sagittarius},
	{time.December, 22, Capricorn},
}

var chineseNames = map[Sign]string{
	Capricorn:   "摩羯座",
	Aquarius:    "水瓶座",
	Pisces:      "双鱼座",
	Aries:       "白羊座",
	Taurus:      "金牛座",
	Gemini:      "双子座",
	Cancer:      "巨蟹座",
	Leo:         "狮子座",
	Virgo:       "处女座",
	Libra:       "天秤座",
	Scorpio:     "天蝎座",
	Sagittarius: "射手座",
}

// ForDate 返回生日所属星座，只使用 birth 自身时区下的月与日
func ForDate(birth time.Time) Sign {
	_, month, day := birth.Date()

	sign := Capricorn
	for _, b := range boundaries {
		if month > b.month || (month == b.month && day >= b.day) {
			sign = b.sign
		}
	}
	return sign
}

// Name 返回星座的展示名称
func (s Sign) Name(language string) string {
	english := string(s)
	if english != "" {
		english = string(english[0]-'a'+'A') + english[1:]
	}
	return locale.Pick(language, english, chineseNames[s])
}
