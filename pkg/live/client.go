package live

import "strings"

// clientScript returns the browser side of a session: it opens the socket,
// replays patch mutations against the page (replacing the body on render
// messages or when a mutation no longer resolves) and forwards clicks and
// input events on ref elements.
func clientScript(path string) string {
	return strings.ReplaceAll(clientScriptTemplate, "__PATH__", path)
}

const clientScriptTemplate = `
(function() {
    'use strict';
    var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
    var ws = new WebSocket(protocol + '//' + location.host + '__PATH__');

    ws.onmessage = function(e) {
        var msg;
        try {
            msg = JSON.parse(e.data);
        } catch (err) {
            return;
        }
        if (msg.type === 'error') {
            console.error('[morph]', msg.error);
            return;
        }
        if (msg.type === 'patch' && msg.mutations) {
            try {
                msg.mutations.forEach(function(m) { apply(msg, m); });
                return;
            } catch (err) {
                console.warn('[morph] patch failed, reloading markup', err);
            }
        }
        if (msg.html !== undefined) {
            document.body.innerHTML = msg.html;
        }
    };

    function container(msg, id) {
        if (!id || id === msg.root) {
            return document.body;
        }
        var sel = '[' + msg.boundary + '="' + CSS.escape(id) + '"]';
        var el = document.body.querySelector(sel);
        if (!el) {
            throw new Error('missing container ' + id);
        }
        return el;
    }

    function resolve(node, path) {
        for (var i = 0; i < path.length; i++) {
            node = node.childNodes[path[i]];
            if (!node) {
                throw new Error('missing node at ' + path.join('/'));
            }
        }
        return node;
    }

    function parse(parent, html) {
        var range = document.createRange();
        range.selectNodeContents(parent);
        return range.createContextualFragment(html);
    }

    function apply(msg, m) {
        var root = container(msg, m.root);
        var path = m.path || [];
        if (path.length === 0) {
            throw new Error('empty path');
        }
        if (m.op === 'InsertNode') {
            var parent = resolve(root, path.slice(0, -1));
            parent.insertBefore(parse(parent, m.html), parent.childNodes[path[path.length - 1]] || null);
            return;
        }
        var node = resolve(root, path);
        switch (m.op) {
        case 'SetText':
            node.data = m.value || '';
            break;
        case 'SetAttr':
            node.setAttribute(m.key, m.value || '');
            if (m.key === 'value' && 'value' in node) {
                node.value = m.value || '';
            }
            break;
        case 'RemoveAttr':
            node.removeAttribute(m.key);
            break;
        case 'RemoveNode':
            node.parentNode.removeChild(node);
            break;
        case 'MoveNode':
            var from = node.parentNode;
            from.removeChild(node);
            from.insertBefore(node, from.childNodes[m.index || 0] || null);
            break;
        case 'ReplaceNode':
            node.parentNode.replaceChild(parse(node.parentNode, m.html), node);
            break;
        default:
            throw new Error('unknown op ' + m.op);
        }
    }

    function forward(type) {
        document.addEventListener(type, function(e) {
            var el = e.target.closest('[data-ref]');
            if (!el || ws.readyState !== 1) {
                return;
            }
            var keyed = el.closest('[data-key]');
            ws.send(JSON.stringify({
                ref: el.getAttribute('data-ref'),
                key: keyed ? keyed.getAttribute('data-key') : '',
                event: type,
                detail: el.value === undefined ? null : el.value
            }));
        });
    }
    forward('click');
    forward('input');
})();
`
