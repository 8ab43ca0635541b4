package weather

// Icon is the legacy client's weather icon id. Only the constants below are
// ever produced; the client renders nothing for other values.
type Icon int

const (
	IconRainSnow            Icon = 5
	IconRainSleet           Icon = 6
	IconDrizzle             Icon = 9
	IconFreezingRain        Icon = 10
	IconShowers             Icon = 11
	IconSnowFlurries        Icon = 13
	IconLightSnow           Icon = 14
	IconHail                Icon = 17
	IconSleet               Icon = 18
	IconDust                Icon = 19
	IconFog                 Icon = 20
	IconHaze                Icon = 21
	IconBlustery            Icon = 23
	IconCloudy              Icon = 26
	IconMostlyCloudyNight   Icon = 27
	IconMostlyCloudyDay     Icon = 28
	IconPartlyCloudyNight   Icon = 29
	IconPartlyCloudyDay     Icon = 30
	IconClearNight          Icon = 31
	IconSunny               Icon = 32
	IconHot                 Icon = 36
	IconScatteredStorms     Icon = 38
	IconScatteredShowers    Icon = 39
	IconHeavySnow           Icon = 41
	IconThundershowers      Icon = 45
	IconSnowShowers         Icon = 46
	IconIsolatedStormsNight Icon = 47

	// IconDefault is used for unmapped or missing condition codes.
	IconDefault = IconSunny
)

// Icons lists the complete enumeration.
var Icons = []Icon{
	IconRainSnow, IconRainSleet, IconDrizzle, IconFreezingRain, IconShowers,
	IconSnowFlurries, IconLightSnow, IconHail, IconSleet, IconDust, IconFog,
	IconHaze, IconBlustery, IconCloudy, IconMostlyCloudyNight, IconMostlyCloudyDay,
	IconPartlyCloudyNight, IconPartlyCloudyDay, IconClearNight, IconSunny, IconHot,
	IconScatteredStorms, IconScatteredShowers, IconHeavySnow, IconThundershowers,
	IconSnowShowers, IconIsolatedStormsNight,
}

// Valid reports whether i belongs to the enumeration.
func (i Icon) Valid() bool {
	for _, v := range Icons {
		if v == i {
			return true
		}
	}
	return false
}

// IconTable translates one provider's condition codes to client icons.
type IconTable interface {
	Icon(code int, isDay bool) Icon
}

// codeTable maps codes that already encode day and night.
type codeTable map[int]Icon

func (t codeTable) Icon(code int, _ bool) Icon {
	if icon, ok := t[code]; ok {
		return icon
	}
	return IconDefault
}

// dayNightTable maps codes whose icon depends on the daylight flag.
type dayNightTable map[int][2]Icon

func (t dayNightTable) Icon(code int, isDay bool) Icon {
	pair, ok := t[code]
	if !ok {
		return IconDefault
	}
	if isDay {
		return pair[0]
	}
	return pair[1]
}

// AccuWeatherIcons maps AccuWeather WeatherIcon values (1-44). Codes 33-44
// are AccuWeather's night variants, so the daylight flag is not consulted.
var AccuWeatherIcons IconTable = codeTable{
	1: IconSunny, 2: IconPartlyCloudyDay, 3: IconMostlyCloudyDay, 4: IconDust,
	5: IconHaze, 6: IconMostlyCloudyDay, 7: IconCloudy, 8: IconCloudy,
	11: IconFog, 12: IconDrizzle, 13: IconScatteredShowers, 14: IconScatteredShowers,
	15: IconHail, 16: IconScatteredStorms, 17: IconScatteredStorms, 18: IconShowers,
	19: IconSnowFlurries, 20: IconScatteredShowers, 21: IconScatteredShowers,
	22: IconLightSnow, 23: IconHeavySnow, 24: IconFreezingRain, 25: IconSleet,
	26: IconRainSleet, 29: IconRainSnow, 30: IconHot, 31: IconSunny,
	32: IconBlustery, 33: IconClearNight, 34: IconPartlyCloudyNight,
	35: IconMostlyCloudyNight, 36: IconPartlyCloudyNight, 37: IconFog,
	38: IconMostlyCloudyNight, 39: IconThundershowers, 40: IconThundershowers,
	41: IconIsolatedStormsNight, 42: IconIsolatedStormsNight,
	43: IconThundershowers, 44: IconSnowShowers,
}

// OpenMeteoIcons maps WMO weather interpretation codes as reported by
// Open-Meteo, with {day, night} variants.
var OpenMeteoIcons IconTable = dayNightTable{
	0:  {IconSunny, IconClearNight},
	1:  {IconPartlyCloudyDay, IconPartlyCloudyNight},
	2:  {IconPartlyCloudyDay, IconPartlyCloudyNight},
	3:  {IconCloudy, IconCloudy},
	45: {IconFog, IconFog},
	48: {IconFog, IconFog},
	51: {IconDrizzle, IconDrizzle},
	53: {IconDrizzle, IconDrizzle},
	55: {IconDrizzle, IconDrizzle},
	56: {IconFreezingRain, IconFreezingRain},
	57: {IconFreezingRain, IconFreezingRain},
	61: {IconShowers, IconShowers},
	63: {IconShowers, IconShowers},
	65: {IconShowers, IconShowers},
	66: {IconFreezingRain, IconFreezingRain},
	67: {IconFreezingRain, IconFreezingRain},
	71: {IconLightSnow, IconSnowFlurries},
	73: {IconLightSnow, IconSnowFlurries},
	75: {IconHeavySnow, IconHeavySnow},
	77: {IconSnowFlurries, IconSnowFlurries},
	80: {IconScatteredShowers, IconShowers},
	81: {IconScatteredShowers, IconShowers},
	82: {IconShowers, IconShowers},
	85: {IconSnowShowers, IconSnowShowers},
	86: {IconSnowShowers, IconSnowShowers},
	95: {IconScatteredStorms, IconIsolatedStormsNight},
	96: {IconHail, IconHail},
	99: {IconHail, IconHail},
}

// WeatherAPIIcons maps WeatherAPI.com condition codes, with {day, night} variants.
var WeatherAPIIcons IconTable = dayNightTable{
	1000: {IconSunny, IconClearNight},
	1003: {IconPartlyCloudyDay, IconPartlyCloudyNight},
	1006: {IconMostlyCloudyDay, IconMostlyCloudyNight},
	1009: {IconCloudy, IconCloudy},
	1030: {IconHaze, IconHaze},
	1063: {IconScatteredShowers, IconShowers},
	1066: {IconSnowFlurries, IconSnowFlurries},
	1069: {IconRainSleet, IconRainSleet},
	1072: {IconFreezingRain, IconFreezingRain},
	1087: {IconScatteredStorms, IconIsolatedStormsNight},
	1114: {IconBlustery, IconBlustery},
	1117: {IconHeavySnow, IconHeavySnow},
	1135: {IconFog, IconFog},
	1147: {IconFog, IconFog},
	1150: {IconDrizzle, IconDrizzle},
	1153: {IconDrizzle, IconDrizzle},
	1168: {IconFreezingRain, IconFreezingRain},
	1171: {IconFreezingRain, IconFreezingRain},
	1180: {IconScatteredShowers, IconShowers},
	1183: {IconShowers, IconShowers},
	1186: {IconScatteredShowers, IconShowers},
	1189: {IconShowers, IconShowers},
	1192: {IconShowers, IconShowers},
	1195: {IconShowers, IconShowers},
	1198: {IconFreezingRain, IconFreezingRain},
	1201: {IconFreezingRain, IconFreezingRain},
	1204: {IconSleet, IconSleet},
	1207: {IconSleet, IconSleet},
	1210: {IconSnowFlurries, IconSnowFlurries},
	1213: {IconLightSnow, IconLightSnow},
	1216: {IconLightSnow, IconLightSnow},
	1219: {IconLightSnow, IconLightSnow},
	1222: {IconHeavySnow, IconHeavySnow},
	1225: {IconHeavySnow, IconHeavySnow},
	1237: {IconHail, IconHail},
	1240: {IconScatteredShowers, IconShowers},
	1243: {IconShowers, IconShowers},
	1246: {IconShowers, IconShowers},
	1249: {IconRainSleet, IconRainSleet},
	1252: {IconRainSleet, IconRainSleet},
	1255: {IconSnowShowers, IconSnowShowers},
	1258: {IconSnowShowers, IconSnowShowers},
	1261: {IconHail, IconHail},
	1264: {IconHail, IconHail},
	1273: {IconScatteredStorms, IconIsolatedStormsNight},
	1276: {IconThundershowers, IconThundershowers},
	1279: {IconRainSnow, IconRainSnow},
	1282: {IconRainSnow, IconRainSnow},
}

// OpenWeatherIcons maps OpenWeatherMap condition ids (200-804). The daylight
// flag comes from the "d"/"n" suffix of the reported icon.
var OpenWeatherIcons IconTable = dayNightTable{
	200: {IconThundershowers, IconThundershowers},
	201: {IconThundershowers, IconThundershowers},
	202: {IconThundershowers, IconThundershowers},
	210: {IconScatteredStorms, IconIsolatedStormsNight},
	211: {IconScatteredStorms, IconIsolatedStormsNight},
	212: {IconScatteredStorms, IconIsolatedStormsNight},
	221: {IconScatteredStorms, IconIsolatedStormsNight},
	230: {IconThundershowers, IconThundershowers},
	231: {IconThundershowers, IconThundershowers},
	232: {IconThundershowers, IconThundershowers},
	300: {IconDrizzle, IconDrizzle},
	301: {IconDrizzle, IconDrizzle},
	302: {IconDrizzle, IconDrizzle},
	310: {IconDrizzle, IconDrizzle},
	311: {IconDrizzle, IconDrizzle},
	312: {IconDrizzle, IconDrizzle},
	313: {IconScatteredShowers, IconShowers},
	314: {IconShowers, IconShowers},
	321: {IconScatteredShowers, IconShowers},
	500: {IconScatteredShowers, IconShowers},
	501: {IconShowers, IconShowers},
	502: {IconShowers, IconShowers},
	503: {IconShowers, IconShowers},
	504: {IconShowers, IconShowers},
	511: {IconFreezingRain, IconFreezingRain},
	520: {IconScatteredShowers, IconShowers},
	521: {IconScatteredShowers, IconShowers},
	522: {IconShowers, IconShowers},
	531: {IconScatteredShowers, IconShowers},
	600: {IconLightSnow, IconLightSnow},
	601: {IconLightSnow, IconLightSnow},
	602: {IconHeavySnow, IconHeavySnow},
	611: {IconSleet, IconSleet},
	612: {IconSleet, IconSleet},
	613: {IconSleet, IconSleet},
	615: {IconRainSnow, IconRainSnow},
	616: {IconRainSnow, IconRainSnow},
	620: {IconSnowShowers, IconSnowShowers},
	621: {IconSnowShowers, IconSnowShowers},
	622: {IconHeavySnow, IconHeavySnow},
	701: {IconFog, IconFog},
	711: {IconHaze, IconHaze},
	721: {IconHaze, IconHaze},
	731: {IconDust, IconDust},
	741: {IconFog, IconFog},
	751: {IconDust, IconDust},
	761: {IconDust, IconDust},
	762: {IconDust, IconDust},
	771: {IconBlustery, IconBlustery},
	781: {IconBlustery, IconBlustery},
	800: {IconSunny, IconClearNight},
	801: {IconPartlyCloudyDay, IconPartlyCloudyNight},
	802: {IconPartlyCloudyDay, IconPartlyCloudyNight},
	803: {IconMostlyCloudyDay, IconMostlyCloudyNight},
	804: {IconCloudy, IconCloudy},
}

// IconTableFor returns the table matching a configured weather provider.
func IconTableFor(provider string) IconTable {
	switch provider {
	case "openmeteo":
		return OpenMeteoIcons
	case "weatherapi":
		return WeatherAPIIcons
	case "openweather":
		return OpenWeatherIcons
	default:
		return AccuWeatherIcons
	}
}
