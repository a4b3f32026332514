package storefront

// Notice is a one-shot message for the user
type Notice struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

const (
	NoticeSuccess = "success"
	NoticeInfo    = "info"
	NoticeError   = "error"
)

var (
	noticePurchased      = Notice{Kind: NoticeSuccess, Message: "Gracias por tu compra!"}
	noticeEmptyCart      = Notice{Kind: NoticeInfo, Message: "Tu carrito está vacío."}
	noticeCancelled      = Notice{Kind: NoticeInfo, Message: "Operación cancelada."}
	noticeLoggedIn       = Notice{Kind: NoticeSuccess, Message: "Has iniciado sesión correctamente!"}
	noticeBadCredentials = Notice{Kind: NoticeError, Message: "Nombre de usuario o contraseña incorrectos."}
	noticeLoggedOut      = Notice{Kind: NoticeSuccess, Message: "Has cerrado sesión correctamente!"}
	noticeUsernameTaken  = Notice{Kind: NoticeError, Message: "El nombre de usuario ya existe."}
	noticeRegistered     = Notice{Kind: NoticeSuccess, Message: "Te has registrado correctamente!"}
	noticeUnavailable    = Notice{Kind: NoticeError, Message: "No pudimos completar la operación. Intenta de nuevo."}
)
