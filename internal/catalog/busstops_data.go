package catalog

// busStops is the MBTA bus stop allow-list: for each route_id, the stop_ids
// worth tracking. Bus coverage is deliberately narrow since bus GPS data is
// much noisier than rail; this list is MBTA's own curated subset.
var busStops = map[string]map[string]struct{}{
	"1": stopSet("102", "10590", "108", "110", "187", "188", "2", "59", "62", "64", "67", "72", "75", "79", "93", "97"),
	"4": stopSet("113", "114", "11599", "117", "11891", "190", "210", "214", "21599", "224", "236", "243", "31255", "65471", "6564", "83091", "892"),
	"9": stopSet("148", "150", "151", "157", "175", "21", "25", "33", "36541", "41", "45", "886"),
	"10": stopSet("11241", "11384", "13", "13321", "1565", "175", "176", "178", "20", "25", "29051", "33", "395", "40001", "407", "41", "412", "45", "5089", "5091", "8"),
	"11": stopSet("150", "15095", "151", "16538", "258", "268", "275", "286", "30294", "33", "6564", "6565"),
	"14": stopSet("10424", "11531", "1747", "1761", "26500", "383", "386", "390", "407", "412", "415", "64000", "6433", "6460", "797"),
	"15": stopSet("11257", "1468", "1475", "1480", "1486", "1497", "1503", "1504", "1508", "1515", "17861", "17863", "21148", "322", "323", "64", "64000"),
	"16": stopSet("111", "11241", "121", "13", "142", "1480", "1565", "1587", "29051", "2910", "2913", "2919", "2922", "2925", "2931", "35201", "875"),
	"17": stopSet("13", "1475", "1480", "1508", "2910", "2935", "323", "362"),
	"18": stopSet("13", "180", "322", "323", "334"),
	"19": stopSet("1520", "1779", "1784", "17862", "1799", "1804", "322", "323", "386", "390", "395", "396", "40001", "407", "412", "550", "552", "562", "565", "64", "64000", "64002", "7", "899", "9441"),
	"21": stopSet("10642", "334", "499", "507", "5232", "526", "533", "537", "543", "546", "875"),
	"22": stopSet("10413", "11531", "1188", "1222", "1258", "1267", "17391", "1741", "17411", "17861", "17862", "17863", "21148", "334", "371", "378", "383", "415", "419", "426"),
	"23": stopSet("11257", "13321", "17861", "17862", "21148", "334", "371", "386", "390", "396", "40001", "407", "412", "426", "463", "468", "473", "478", "64000"),
	"26": stopSet("334", "371", "426", "507", "511"),
	"28": stopSet("11257", "11712", "13321", "1714", "1728", "1731", "1737", "17861", "17862", "18511", "21148", "383", "386", "390", "396", "40001", "407", "412", "415", "419", "64000"),
	"32": stopSet("10642", "2819", "36466", "42819", "6471", "6474", "6478", "6496", "6500", "6504", "6509", "875"),
	"34": stopSet("10612", "10642", "10833", "602", "6022", "604", "609", "616", "621", "625", "628", "633", "636", "70618", "875", "99832"),
	"39": stopSet("10642", "11131", "1128", "11388", "11389", "1160", "1317", "1363", "175", "1939", "23391", "31317", "31365", "41391", "6574", "65741", "81317", "91391"),
	"41": stopSet("11131", "11531", "1160", "11609", "11939", "121", "122", "123", "136", "1486", "1497", "1939", "2910", "2933", "2935", "64000"),
	"45": stopSet("11257", "1565", "1566", "1569", "1576", "1577", "1583", "1586", "17861", "17863", "21148", "383", "415", "64000"),
	"47": stopSet("10006", "10008", "10011", "10015", "1123", "150", "1773", "1779", "17861", "17863", "1804", "1809", "5090", "64", "72"),
	"55": stopSet("10000", "11391", "178", "1926", "1931", "1932"),
	"57": stopSet("899", "900", "903", "912", "913", "918", "925", "926", "931", "934", "937", "954", "956", "959", "966", "973", "9780", "979", "987"),
	"61": stopSet("18928", "7783", "7784", "86944", "89610"),
	"66": stopSet("1111", "1302", "1308", "1317", "1323", "1357", "1362", "1372", "1378", "1526", "1555", "21148", "22549", "2553", "2561", "64000", "925", "926", "966"),
	"70": stopSet("1043", "1051", "1070", "1077", "1123", "72", "730", "8178", "8297", "8678", "86944", "8815", "8825", "88333", "9522", "9525", "9526"),
	"71": stopSet("2020", "2025", "2030", "2043", "2050", "2064", "2070", "2074", "2076", "20761", "32549", "8178"),
	"73": stopSet("2020", "2025", "2030", "2064", "2070", "2074", "2076", "20761", "2108", "2117", "2125", "2134", "32549"),
	"77": stopSet("12295", "12301", "2076", "20761", "20762", "2251", "2258", "2265", "22671", "2271", "22751", "2277", "2282", "2291", "2296", "2307", "2310", "23151", "2320", "2321", "32549", "7922"),
	"85": stopSet("2231", "2510", "2519", "2528", "2574"),
	"86": stopSet("1026", "1043", "1077", "1084", "20761", "21917", "22549", "2553", "2561", "2597", "2612", "2874", "28741", "29001", "29005"),
	"89": stopSet("2634", "2637", "2691", "2695", "2703", "2729", "2738", "2874", "29001", "29011", "5015", "5104"),
	"91": stopSet("1060", "12439", "12451", "2439", "2451", "2531", "2597", "2612", "2874", "28741", "29001", "29006"),
	"92": stopSet("117", "2821", "28281", "2835", "2874", "28741", "29001", "29009", "30203", "32840", "6548", "83091"),
	"104": stopSet("2874", "53270", "5347", "5354", "5361", "5496", "5517", "5518", "5560", "5565", "5695"),
	"109": stopSet("2874", "5481", "5488", "5496", "5517", "5518", "5524", "5560", "5565", "5695", "7412", "7417"),
	"111": stopSet("12001", "12002", "12003", "12004", "2829", "2832", "5547", "5592", "5595", "5601", "5602", "5605", "5607", "5611", "5615", "5620", "5626", "5629", "5636", "8309", "8310"),
	"114": stopSet("5045", "5605", "5615", "5736", "5740", "5743"),
	"116": stopSet("15795", "5605", "5615", "56170", "5713", "5720", "5736", "5740", "5743", "5755", "5763"),
	"117": stopSet("15795", "4717", "4733", "5605", "5615", "5713", "5714", "5720", "5736", "5740", "5743", "5755", "5761", "5790", "8309", "8310"),
	"220": stopSet("32004", "3516", "3525", "3539", "3549", "3560", "3582", "3595", "3603", "36031", "3616", "3630", "3639"),
	"221": stopSet("32004", "3525", "3539", "3616", "3630"),
	"222": stopSet("13844", "32004", "3516", "3525", "3539", "3630", "3639", "3675", "3684", "3692", "3707", "4435", "4439"),
}
