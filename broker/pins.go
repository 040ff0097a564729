package broker

// PinType classifies a physical header position.
type PinType int

// The physical pin types present on the 40-pin header.
const (
	Unknown PinType = iota
	GND
	DNC
	Voltage3V3
	Voltage5V
	GPIO
)

func (t PinType) String() string {
	switch t {
	case GND:
		return "GND"
	case DNC:
		return "DNC"
	case Voltage3V3:
		return "3V3"
	case Voltage5V:
		return "5V"
	case GPIO:
		return "GPIO"
	default:
		return "UNKNOWN"
	}
}

// PinDescriptor is one read-only entry of the static 40-pin header table:
// the header position, its type, its canonical name (e.g. "GPIO17") and,
// where applicable, an alternate-function name (e.g. "UART0_TXD").
//
// This table never changes after construction; it exists so a UI can
// address pins by name instead of by header position. It carries no
// runtime state -- the live level of a GPIO pin lives in the register.Bank,
// keyed by GPIO number, not by header position.
type PinDescriptor struct {
	Position int
	Type     PinType
	Name     string
	AltName  string
}

// Header is the fixed 40-entry pin table of a Raspberry Pi 3B+-compatible
// header, reproduced from the original simulator's GpioRegister table.
var Header = []PinDescriptor{
	{1, Voltage3V3, "3V3_1", ""},
	{2, Voltage5V, "5V_1", ""},
	{3, GPIO, "GPIO2", "SDA"},
	{4, Voltage5V, "5V_2", ""},
	{5, GPIO, "GPIO3", "SCL"},
	{6, GND, "GND_1", ""},
	{7, GPIO, "GPIO4", ""},
	{8, GPIO, "GPIO14", "UART0_TXD"},
	{9, GND, "GND_2", ""},
	{10, GPIO, "GPIO15", "UART0_RXD"},
	{11, GPIO, "GPIO17", ""},
	{12, GPIO, "GPIO18", "CLK"},
	{13, GPIO, "GPIO27", ""},
	{14, GND, "GND_3", ""},
	{15, GPIO, "GPIO22", ""},
	{16, GPIO, "GPIO23", ""},
	{17, Voltage3V3, "3V3_2", ""},
	{18, GPIO, "GPIO24", ""},
	{19, GPIO, "GPIO10", "MOSI"},
	{20, GND, "GND_4", ""},
	{21, GPIO, "GPIO9", "MISO"},
	{22, GPIO, "GPIO25", ""},
	{23, GPIO, "GPIO11", "CLK"},
	{24, GPIO, "GPIO8", "CE0_N"},
	{25, GND, "GND_5", ""},
	{26, GPIO, "GPIO7", "CE1_N"},
	{27, DNC, "DNC_1", "I2C"},
	{28, DNC, "DNC_2", "I2C"},
	{29, GPIO, "GPIO5", ""},
	{30, GND, "GND_6", ""},
	{31, GPIO, "GPIO6", ""},
	{32, GPIO, "GPIO12", ""},
	{33, GPIO, "GPIO13", ""},
	{34, GND, "GND_7", ""},
	{35, GPIO, "GPIO19", ""},
	{36, GPIO, "GPIO16", ""},
	{37, GPIO, "GPIO26", ""},
	{38, GPIO, "GPIO20", ""},
	{39, GND, "GND_8", ""},
	{40, GPIO, "GPIO21", ""},
}

// PinByName returns the descriptor whose canonical name matches name, or
// false if there is none.
func PinByName(name string) (PinDescriptor, bool) {
	for _, p := range Header {
		if p.Name == name {
			return p, true
		}
	}
	return PinDescriptor{}, false
}

// PinByPosition returns the descriptor at header position (1-40), or false
// if out of range.
func PinByPosition(pos int) (PinDescriptor, bool) {
	if pos < 1 || pos > len(Header) {
		return PinDescriptor{}, false
	}
	return Header[pos-1], true
}
