package assemble

import "fmt"

// instrumentation is the script injected into every assembled
// document. It forwards console output and runtime errors to the host
// through the one-way message channel (__sandpost), stamping every
// message with the instance token. All forwarding is best-effort: a
// forwarding failure can never break user code.
const instrumentation = `(function(){
var TOKEN=%q;
function post(msg){
  try{msg.token=TOKEN;__sandpost(JSON.stringify(msg));}catch(e){}
}
function hook(level){
  var original=console[level];
  console[level]=function(){
    var parts=[];
    for(var i=0;i<arguments.length;i++){parts.push(String(arguments[i]));}
    post({type:'console',level:level,text:parts.join(' '),timestamp:Date.now()});
    try{original.apply(console,arguments);}catch(e){}
  };
}
hook('log');hook('warn');hook('error');hook('info');
window.addEventListener('error',function(ev){
  post({type:'error',text:String(ev.message||ev.error||'unknown error'),
    line:ev.lineno||0,column:ev.colno||0,
    stack:(ev.error&&ev.error.stack)?String(ev.error.stack):'',
    timestamp:Date.now()});
  if(ev.preventDefault)ev.preventDefault();
});
window.addEventListener('unhandledrejection',function(ev){
  post({type:'error',text:'Unhandled promise rejection: '+String(ev.reason),
    timestamp:Date.now()});
  if(ev.preventDefault)ev.preventDefault();
});
})();`

// Snippet returns the instrumentation script bound to an instance
// token. Identical on every build modulo the token.
func Snippet(token string) string {
	return fmt.Sprintf(instrumentation, token)
}
