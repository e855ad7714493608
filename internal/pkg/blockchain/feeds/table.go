package feeds

// pythFeedIDs maps normalized asset pairs to Pyth price feed ids.
var pythFeedIDs = map[string]string{
	"1INCHUSD":  "0x63f341689d98a12ef60a5cff1d7f85c70a9e17bf1575f0e7c0b2512d48b1c8b3",
	"AAVEUSD":   "0x2b9ab1e972a281585084148ba1389800799bd4be63b957507db1349314e47445",
	"ACMUSD":    "0xbd640cddb72063e2ede34c6a0baf6699759b9837fcb06aa0e2fbcecb9b65fde7",
	"ADAUSD":    "0x2a01deaec9e51a579277b34b122399984d0bbf57e2458a7e42fecd2829867a0d",
	"ALGOUSD":   "0xfa17ceaf30d19ba51112fdcc750cc83454776f47fb0112e4af07f15f4bb1ebc0",
	"ALICEUSD":  "0xccca1d2b0d9a9ca72aa2c849329520a378aea0ec7ef14497e67da4050d6cf578",
	"ALPACAUSD": "0x9095653620547ece988ec51486dc7a6eb2efddbce8ea5bedbd53bf00cca84cf6",
	"AMPUSD":    "0xd37e4513ebe235fff81e453d400debaf9a49a5df2b7faa11b3831d35d7e72cb7",
	"ANKRUSD":   "0x89a58e1cab821118133d6831f5018fba5b354afb78b2d18f575b3cbf69a4f652",
	"APEUSD":    "0x15add95022ae13563a11992e727c91bdb6b55bc183d9d747436c80a483d8c864",
	"APTUSD":    "0x03ae4db29ed4ae33d323568895aa00337e658e348b37509f5372ae51f0af00d5",
	"ARBUSD":    "0x3fa4252848f9f0a1480be62745a4629d9eb1322aebab8a791e344b3b9c1adcf5",
	"ARGUSD":    "0x2394ce86c7d68050ce52797923860f6c1656a73fb11bd10dacb3f9c719acdd1d",
	"ASRUSD":    "0xb881c6dad5dd3dc9a83222f8032fb439859288119afc742d43adc305cef151cc",
	"ATLASUSD":  "0x681e0eb7acf9a2a3384927684d932560fb6f67c6beb21baa0f110e993b265386",
	"ATMUSD":    "0x8ff1200345393bb25be4f4eeb2d97234e91f7e6213f3745a694b1436e700f271",
	"ATOMUSD":   "0xb00b60f88b03a6a625a8d1c048c3f66653edf217439983d037e7222c4e612819",
	"AUDUSD":    "0x67a6f93030420c1c9e3fe37c1ab6b77966af82f995944a9fefce357a22854a80",
	"AURORAUSD": "0x2f7c4f738d498585065a4b87b637069ec99474597da7f0ca349ba8ac3ba9cac5",
	"AVAXUSD":   "0x93da3352f9f1d105fdfe4971cfa80e9dd777bfc5d0f683ebb6e1294b92137bb7",
	"AXSUSD":    "0xb7e3904c08ddd9c0c10c6d207d390fd19e87eb6aab96304f571ed94caebdefa0",
	"BARUSD":    "0x9d23a47f843f5c9284832ae6e76e4aa067dc6072a58f151d39a65a4cc792ef9f",
	"BCHUSD":    "0x3dd2b63686a450ec7290df3a1e0b583c0481f651351edfa7636f39aed55cf8a3",
	"BETHUSD":   "0x7f981f906d7cfe93f618804f1de89e0199ead306edc022d3230b3e8305f391b0",
	"BITUSD":    "0x70ab610e3ed6642875f4a259dc29175452733316fee440f23fed99154d1d84f7",
	"BNBUSD":    "0x2f95862b045670cd22bee3114c39763a4a08beeb663b145d283c31d7d1101c4f",
	"BNXUSD":    "0x59671f59d12dc81bae078754b7469c7434528a66d3fa91193cf204460c198f9b",
	"BONKUSD":   "0x72b021217ca3fe68922a19aaf990109cb9d84e9ad004b4d2025ad6f529314419",
	"BTCUSD":    "0xe62df6c8b4a85fe1a67db44dc12de5db330f7ac66b72dc658afedf0f4a415b43",
	"BUSDUSD":   "0x5bc91f13e412c07599167bae86f07543f076a638962b8d6017ec19dab4a82814",
	"C98USD":    "0x2dd14c7c38aa7066c7a508aac299ebcde5165b07d5d9f2d94dfbfe41f0bc5f2e",
	"CAKEUSD":   "0x2356af9529a1064d41e32d617e2ce1dca5733afa901daba9e2b68dee5d53ecf9",
	"CBETHUSD":  "0x15ecddd26d49e1a8f1de9376ebebc03916ede873447c1255d2d5891b92ce5717",
	"CELOUSD":   "0x7d669ddcdd23d9ef1fa9a9cc022ba055ec900e91c4cb960f3c20429d4447a411",
	"CHRUSD":    "0xbd4dbcbfd90e6bc6c583e07ffcb5cb6d09a0c7b1221805211ace08c837859627",
	"CHZUSD":    "0xe799f456b358a2534aa1b45141d454ac04b444ed23b1440b778549bb758f2b5c",
	"CITYUSD":   "0x9c479b12a2b2c1051715d4d462dd7a6abbb6dccabf3af31a53f6130a1cd88efc",
	"CROUSD":    "0x23199c2bcb1303f667e733b9934db9eca5991e765b45f5ed18bc4b231415f2fe",
	"CRVUSD":    "0xa19d04ac696c7a6616d291c7e5d1377cc8be437c327b75adb5dc1bad745fcae8",
	"CUSDUSD":   "0x8f218655050a1476b780185e89f19d2b1e1f49e9bd629efad6ac547a946bf6ab",
	"CVXUSD":    "0x6aac625e125ada0d2a6b98316493256ca733a5808cd34ccef79b0e28c64d1e76",
	"DAIUSD":    "0xb0948a5e5313200c632b51bb5ca32f6de0d36e9950a942d19751e833f70dabfd",
	"DOGEUSD":   "0xdcef50dd0a4cd2dcc17e45df1676dcb336a11a61c69df7a0299b0150c672d25c",
	"DOTUSD":    "0xca3eed9b267293f6595901c734c7525ce8ef49adafe8284606ceb307afa2ca5b",
	"DYDXUSD":   "0x6489800bb8974169adfe35937bf6736507097d13c190d760c557108c7e93a81b",
	"ETHUSD":    "0xff61491a931112ddf1bd8147cd1b641375f79f5825126d665480874634fd0ace",
	"EURUSD":    "0xa995d00bb36a63cef7fd2c287dc105fc8f3d93779f062f09551b0af3e81ec30b",
	"FETUSD":    "0xb98e7ae8af2d298d2651eb21ab5b8b5738212e13efb43bd0dfbce7a74ba4b5d0",
	"FIDAUSD":   "0xc80657b7f6f3eac27218d09d5a4e54e47b25768d9f5e10ac15fe2cf900881400",
	"FILUSD":    "0x150ac9b959aee0051e4091f0ef5216d941f590e1c5e7f91cf7635b5c11628c0e",
	"FLOKIUSD":  "0x6b1381ce7e874dc5410b197ac8348162c0dd6c0d4c9cd6322672d6c2b1d58293",
	"FLOWUSD":   "0x2fb245b9a84554a0f15aa123cbb5f64cd263b59e9a87d80148cbffab50c69f30",
	"FTMUSD":    "0x5c6c0d2386e3352356c3ab84434fafb5ea067ac2678a38a338c4a69ddc4bdb0c",
	"FTTUSD":    "0x6c75e52531ec5fd3ef253f6062956a8508a2f03fa0a209fb7fbc51efd9d35f88",
	"GALAUSD":   "0x0781209c28fda797616212b7f94d77af3a01f3e94a5d421760aef020cf2bcb51",
	"GALUSD":    "0x301377b122716cee1a498e7930a1836c0b1db84667cc78bbbcbad6c330ea6afb",
	"GBPUSD":    "0x84c2dde9633d93d1bcad84e7dc41c9d56578b7ec52fabedc1f335d673df0a7c1",
	"GMTUSD":    "0xbaa284eaf23edf975b371ba2818772f93dbae72836bbdea28b07d40f3cf8b485",
	"GMXUSD":    "0xb962539d0fcb272a494d65ea56f94851c2bcf8823935da05bd628916e2e9edbf",
	"INJUSD":    "0x7a5bc1d2b56ad029048cd63964b3ad2776eadf812edc1a43a31406cb54bff592",
	"INTERUSD":  "0xa4702f0f5818258783a1e47f453cb20b0fbec32ca67260e1d19dfcdd6a4d0ebb",
	"JSTUSD":    "0xee42016c303126bd9263724e00f83a8114e84518c6e8ffc9738c001cc301daff",
	"JUVUSD":    "0xabe4f2b264560a397f38eec024369356e5c1ea4f7aab94729369f144b3d97779",
	"LAZIOUSD":  "0xd1d95644ffc11ca502f21e067a7814144c56b37018515ced4335a886a827a305",
	"LDOUSD":    "0xc63e2a7f37a04e5e614c07238bedb25dcc38927fba8fe890597a593c0b2fa4ad",
	"LINKUSD":   "0x8ac0c70fff57e9aefdf5edf44b51d62c2d433653cbb2cf5cc06bb115af04d221",
	"LTCUSD":    "0x6e3f3fa8253588df9326580180233eb791e03b443a3ba7a1d892e73874e19a54",
	"LUNAUSD":   "0xe6ccd3f878cf338e6732bf59f60943e8ca2c28402fc4d9c258503b2edbe74a31",
	"LUNCUSD":   "0x4456d442a152fd1f972b18459263ef467d3c29fb9d667e30c463b086691fbc79",
	"MATICUSD":  "0x5de33a9112c2b700b8d30b8a3402c103578ccfa2765696471cc672bd5cf6ac52",
	"MBOXUSD":   "0x1888f463c27997174f97d2a36af29bf4648b61a5f69e67c45505a80f826bb785",
	"MIRUSD":    "0x0b46c1c04e9c914037cc4e0561a7e6787f6db0b89b7b65281f0f6fea1ce45a74",
	"MNGOUSD":   "0x5b70af49d639eefe11f20df47a0c0760123291bb5bc55053faf797d1ff905983",
	"MSOLUSD":   "0xc2289a6a43d2ce91c6f55caec370f4acc38a2ed477f58813334c6d03749ff2a4",
	"NEARUSD":   "0xc415de8d2eba7db216527dff4b60e8f3a5311c740dadb233e13e12547e226750",
	"NZDUSD":    "0x92eea8ba1b00078cdc2ef6f64f091f262e8c7d0576ee4677572f314ebfafa4c7",
	"OGUSD":     "0x05934526b94a9fbe4c4ce0c3792213032f086ee4bf58f2168a7085361af9bdc1",
	"ONEUSD":    "0xc572690504b42b57a3f7aed6bd4aae08cbeeebdadcf130646a692fe73ec1e009",
	"OPUSD":     "0x385f64d993f7b77d8182ed5003d97c60aa3361f3cecfe711544d2d59165e9bdf",
	"ORCAUSD":   "0x37505261e557e251290b8c8899453064e8d760ed5c65a779726f2490980da74c",
	"PERPUSD":   "0x944f2f908c5166e0732ea5b610599116cd8e1c41f47452697c1e84138b7184d6",
	"PORTOUSD":  "0x88e2d5cbd2474766abffb2a67a58755a2cc19beb3b309e1ded1e357253aa3623",
	"PORTUSD":   "0x0afa3199e0899270a74ddcf5cc960d3c6c4414b4ca71024af1a62786dd24f52a",
	"PSGUSD":    "0x3d253019d38099c0fe918291bd08c9b887f4306a44d7d472c8031529141f275a",
	"RAYUSD":    "0x91568baa8beb53db23eb3fb7f22c6e8bd303d103919e19733f2bb642d3e7987a",
	"SBRUSD":    "0x6ed3c7c4427ae2f91707495fc5a891b30795d93dbb3931782ddd77a5d8cb6db7",
	"SCNSOLUSD": "0x1021a42d623ab4fe0bf8c47fd21cc10636e39e07f91e9b2478551e137d512aaa",
	"SHIBUSD":   "0xf0d57deca57b3da2fe63a493f4c25925fdfd8edf834b20f93e1f84dbd1504d4a",
	"SLNDUSD":   "0xf8d030e4ef460b91ad23eabbbb27aec463e3c30ecc8d5c4b71e92f54a36ccdbd",
	"SNYUSD":    "0x9fb0bd29fe51481b61df41e650346cc374b13c2bab2e3610364cd834a592025a",
	"SOLUSD":    "0xef0d8b6fda2ceba41da15d4095d1da392a0d2f8ed0c6c7bc0f4cfac8c280b56d",
	"SRMUSD":    "0x23245bb74254e65a98cc3ff4a37443d79f527e44e449750ad304538b006f21bc",
	"STSOLUSD":  "0xa1a6465f4c2ebf244c31d80bc95c27345a3424e428c2def33eced9e90d3f701b",
	"SWEATUSD":  "0x432a52bde005a010dc32c47733e4595fea0ea04df3b5aaa1c45153a527d646f0",
	"THETAUSD":  "0xee70804471fe22d029ac2d2b00ea18bbf4fb062958d425e5830fd25bed430345",
	"TONUSD":    "0x8963217838ab4cf5cadc172203c1f0b763fbaa45f346d8ee50ba994bbcac3026",
	"TUSDUSD":   "0x433faaa801ecdb6618e3897177a118b273a8e18cc3ff545aadfc207d58d028f7",
	"UNIUSD":    "0x78d185a741d07edb3412b09008b7c5cfb9bbbd7d568bf00ba737b456ba171501",
	"USDCAD":    "0x3112b03a41c910ed446852aacf67118cb1bec67b2cd0b9a214c58cc0eaa2ecca",
	"USDCHF":    "0x0b1e3297e69f162877b577b0d6a47a0d63b2392bc8499e6540da4187a63e28f8",
	"USDCNH":    "0xeef52e09c878ad41f6a81803e3640fe04dceea727de894edd4ea117e2e332e66",
	"USDCUSD":   "0xeaa020c61cc479712813461ce153894a96a6c00b21ed0cfc2798d1f9a9e9c94a",
	"USDHKD":    "0x19d75fde7fee50fe67753fdc825e583594eb2f51ae84e114a5246c4ab23aff4c",
	"USDJPY":    "0xef2c98c804ba503c6a707e38be4dfbb16683775f195b091252bf24693042fd52",
	"USDMXN":    "0xe13b1c1ffb32f34e1be9545583f01ef385fde7f42ee66049d30570dc866b77ca",
	"USDSGD":    "0x396a969a9c1480fa15ed50bc59149e2c0075a72fe8f458ed941ddec48bdb4918",
	"USDTUSD":   "0x2b89b9dc8fdf9f34709a5b106b472f0f39bb6ca9ce04b0fd7f2e971688e2e53b",
	"USDZAR":    "0x389d889017db82bf42141f23b61b8de938a4e2d156e36312175bebf797f493f1",
	"USTCUSD":   "0xef94acc2fb09eb976c6eb3000bab898cab891d5b800702cd1dc88e61d7c3c5e6",
	"WOOUSD":    "0xb82449fd728133488d2d41131cffe763f9c1693b73c544d9ef6aaa371060dd25",
	"XAGUSD":    "0xf2fb02c32b055c805e7238d628e5e9dadef274376114eb1f012337cabe93871e",
	"XAUUSD":    "0x765d2ba906dbc32ca17cc11f5310a89e9ee1f6420508c63861f2f8ba4ee34bb2",
	"XMRUSD":    "0x46b8cc9347f04391764a0361e0b17c3ba394b001e7c304f7650f6376e37c321d",
	"XRPUSD":    "0xec5d399846a9209f3fe5881d70aae9268c94339ff9817e8d18ff19fa05eea1c8",
	"XVSUSD":    "0x831624f51c7bd4499fe5e0f16dfa2fd22584ae4bdc496bbbbe9ba831b2d9bce9",
	"ZBCUSD":    "0x26852e2d0696e25e6adaad2d7ca3a1f2f15aab68d317ace14d41b4128a7e780f",
}
